package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrenko/campusnav/internal/domain"
	"github.com/mpetrenko/campusnav/internal/search"
	"github.com/mpetrenko/campusnav/internal/service"
	"github.com/mpetrenko/campusnav/internal/store"
)

type stubDock struct {
	uploads []string
}

func (d *stubDock) EnsureBucket(context.Context) error { return nil }

func (d *stubDock) Upload(_ context.Context, filename string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	d.uploads = append(d.uploads, filename)
	return "obj-" + filename, nil
}

func (d *stubDock) PresignedURL(_ context.Context, objectName string) (string, error) {
	return "https://minio.local/photos/" + objectName, nil
}

func newTestRouter(t *testing.T, photos *stubDock, library *search.Engine) (http.Handler, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewNavigationService(mem, logger)

	api := NewAPIHandlers(logger, svc, nil, library)
	if photos != nil {
		api = NewAPIHandlers(logger, svc, photos, library)
	}

	router := NewRouter(logger, RouterDependencies{
		Health: StoreHealthService{Store: mem},
		API:    api,
	})
	return router, mem
}

func validCreateBody() string {
	return `{
		"university": "Tech U",
		"address": "1 Main St",
		"graph": {
			"nodes": [
				{"id": "A", "x": 0, "y": 0, "floor": 1, "type": "cabinet"},
				{"id": "B", "x": 5, "y": 0, "floor": 1, "type": "corridor"},
				{"id": "C", "x": 5, "y": 5, "floor": 2, "type": "cabinet"}
			],
			"edges": [
				{"from": "A", "to": "B", "weight": 1},
				{"from": "B", "to": "C", "weight": 5}
			]
		}
	}`
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateGraphEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody())
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Same address again conflicts regardless of payload differences.
	rec = doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateGraphRejectsInvalidSnapshot(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	body := `{
		"university": "Tech U",
		"address": "1 Main St",
		"graph": {
			"nodes": [{"id": "A", "x": 0, "y": 0, "floor": 1, "type": "cabinet"}],
			"edges": [{"from": "A", "to": "ghost", "weight": 1}]
		}
	}`
	rec := doJSON(t, router, http.MethodPost, "/v1/graph", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghost")
}

func TestRouteEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)
	require.Equal(t, http.StatusCreated,
		doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody()).Code)

	rec := doJSON(t, router, http.MethodPost, "/v1/graph/route",
		`{"address": "1 Main St", "startId": "A", "endId": "C"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload routeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Path, 3)
	assert.Equal(t, "A", payload.Path[0].ID)
	assert.Equal(t, "B", payload.Path[1].ID)
	assert.Equal(t, "C", payload.Path[2].ID)
	assert.Equal(t, 2, payload.Path[2].Floor, "route nodes carry full attributes")
}

func TestRouteEndpointErrorMapping(t *testing.T) {
	router, mem := newTestRouter(t, nil, nil)
	require.Equal(t, http.StatusCreated,
		doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody()).Code)

	// Unknown address.
	rec := doJSON(t, router, http.MethodPost, "/v1/graph/route",
		`{"address": "nowhere", "startId": "A", "endId": "C"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown node is a client error, not a server fault.
	rec = doJSON(t, router, http.MethodPost, "/v1/graph/route",
		`{"address": "1 Main St", "startId": "A", "endId": "ghost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A corrupted stored snapshot is a server fault.
	mem.Put(domain.GraphRecord{
		Address: "2 Broken Ave",
		Graph: domain.Graph{
			Nodes: []domain.Node{{ID: "A"}},
			Edges: []domain.Edge{{From: "A", To: "ghost", Weight: 1}},
		},
	})
	rec = doJSON(t, router, http.MethodPost, "/v1/graph/route",
		`{"address": "2 Broken Ave", "startId": "A", "endId": "A"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateGraphEndpoint(t *testing.T) {
	router, mem := newTestRouter(t, nil, nil)
	require.Equal(t, http.StatusCreated,
		doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody()).Code)

	// Neither field present is a client error.
	rec := doJSON(t, router, http.MethodPut, "/v1/graph", `{"address": "1 Main St"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no fields to update")

	rec = doJSON(t, router, http.MethodPut, "/v1/graph",
		`{"address": "1 Main St", "university": "Renamed U"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	recStored, err := mem.GetByAddress(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, "Renamed U", recStored.University)

	rec = doJSON(t, router, http.MethodPut, "/v1/graph",
		`{"address": "nowhere", "university": "X"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteGraphEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)
	require.Equal(t, http.StatusCreated,
		doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody()).Code)

	rec := doJSON(t, router, http.MethodDelete, "/v1/graph/1%20Main%20St", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/v1/graph/1%20Main%20St", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGraphsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)
	require.Equal(t, http.StatusCreated,
		doJSON(t, router, http.MethodPost, "/v1/graph", validCreateBody()).Code)

	rec := doJSON(t, router, http.MethodGet, "/v1/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []graphSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "1 Main St", summaries[0].Address)
	assert.Equal(t, "Tech U", summaries[0].University)
	assert.NotContains(t, rec.Body.String(), "nodes", "listing omits the graph payload")
}

func TestPhotoUploadEndpoint(t *testing.T) {
	photos := &stubDock{}
	router, _ := newTestRouter(t, photos, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range []string{"floor1.png", "entrance.jpg"} {
		part, err := writer.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/graph/photos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var payload photoURLsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.URLs, 2)
	assert.Equal(t, []string{"floor1.png", "entrance.jpg"}, photos.uploads)
	for _, url := range payload.URLs {
		assert.True(t, strings.HasPrefix(url, "https://minio.local/photos/obj-"), url)
	}
}

func TestPhotoUploadUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/graph/photos", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchEndpoints(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "physics.txt"),
		[]byte("lecture notes on quantum mechanics and wave functions"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history.txt"),
		[]byte("a chronicle of medieval trade routes"), 0o644))

	library, err := search.NewEngine(dir)
	require.NoError(t, err)

	router, _ := newTestRouter(t, nil, library)

	rec := doJSON(t, router, http.MethodGet, "/v1/search?query=quantum+mechanics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []searchResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "physics.txt", results[0].Filename)

	// Queries below the minimum length are rejected.
	rec = doJSON(t, router, http.MethodGet, "/v1/search?query=ab", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []documentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Len(t, docs, 2)
}

func TestSearchUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/search?query=anything", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/documents", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
