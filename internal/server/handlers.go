package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mpetrenko/campusnav/internal/dock"
	"github.com/mpetrenko/campusnav/internal/domain"
	"github.com/mpetrenko/campusnav/internal/nav"
	"github.com/mpetrenko/campusnav/internal/search"
	"github.com/mpetrenko/campusnav/internal/service"
	"github.com/mpetrenko/campusnav/internal/store"
)

const maxPhotoUploadBytes = 32 << 20

// APIHandlers exposes HTTP handlers for the REST API. Photos and Search are
// optional features; their handlers answer 503 when unconfigured.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.NavigationService
	photos  dock.Dock
	library *search.Engine
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.NavigationService, photos dock.Dock, library *search.Engine) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
		photos:  photos,
		library: library,
	}
}

func (h *APIHandlers) handleGraph(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createGraph(w, r)
	case http.MethodGet:
		h.listGraphs(w, r)
	case http.MethodPut:
		h.updateGraph(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodPut)
	}
}

func (h *APIHandlers) handleGraphByAddress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}

	address := strings.TrimPrefix(r.URL.Path, "/v1/graph/")
	address = strings.Trim(address, "/")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	if err := h.service.DeleteGraph(r.Context(), address); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "graph with address '" + address + "' deleted",
	})
}

func (h *APIHandlers) createGraph(w http.ResponseWriter, r *http.Request) {
	var payload createGraphRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	if payload.Graph == nil {
		writeError(w, http.StatusBadRequest, "graph is required")
		return
	}

	_, err := h.service.CreateGraph(r.Context(), service.CreateGraphInput{
		University: payload.University,
		Address:    payload.Address,
		Graph:      payload.Graph.toDomain(),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, nil)
}

func (h *APIHandlers) updateGraph(w http.ResponseWriter, r *http.Request) {
	var payload updateGraphRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	input := service.UpdateGraphInput{
		Address:    payload.Address,
		University: payload.University,
	}
	if payload.Graph != nil {
		g := payload.Graph.toDomain()
		input.Graph = &g
	}

	if err := h.service.UpdateGraph(r.Context(), input); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "graph updated"})
}

func (h *APIHandlers) listGraphs(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListGraphs(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]graphSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		resp = append(resp, graphSummaryResponse{
			ID:         sum.ID,
			University: sum.University,
			Address:    sum.Address,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload routeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Address == "" || payload.StartID == "" || payload.EndID == "" {
		writeError(w, http.StatusBadRequest, "address, startId and endId are required")
		return
	}

	route, err := h.service.Route(r.Context(), payload.Address, payload.StartID, payload.EndID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := routeResponse{Path: make([]nodePayload, 0, len(route.Path))}
	for _, n := range route.Path {
		resp.Path = append(resp.Path, nodePayload{
			ID:    n.ID,
			X:     n.X,
			Y:     n.Y,
			Floor: n.Floor,
			Type:  n.Type,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handlePhotos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if h.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one photo is required")
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable photo: "+header.Filename)
			return
		}

		objectName, err := h.photos.Upload(r.Context(), header.Filename, file, header.Size,
			header.Header.Get("Content-Type"))
		file.Close()
		if err != nil {
			h.logger.Error("photo upload failed", "filename", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store photo")
			return
		}

		url, err := h.photos.PresignedURL(r.Context(), objectName)
		if err != nil {
			h.logger.Error("presigning photo failed", "object", objectName, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to generate photo link")
			return
		}
		urls = append(urls, url)
	}

	respondJSON(w, http.StatusCreated, photoURLsResponse{URLs: urls})
}

func (h *APIHandlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.library == nil {
		writeError(w, http.StatusServiceUnavailable, "document search is not configured")
		return
	}

	query := r.URL.Query().Get("query")
	if len(query) < 3 {
		writeError(w, http.StatusBadRequest, "query must be at least 3 characters")
		return
	}
	top := parseInt(r.URL.Query().Get("top"), 5)
	if top < 1 {
		top = 1
	}
	if top > 20 {
		top = 20
	}

	results := h.library.Search(query, top)
	resp := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, searchResultResponse{
			Filename:   res.Filename,
			Similarity: res.Similarity,
			Snippet:    res.Snippet,
			Metadata:   toMetadataResponse(res.Metadata),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.library == nil {
		writeError(w, http.StatusServiceUnavailable, "document search is not configured")
		return
	}

	docs := h.library.ListDocuments()
	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documentResponse{
			Filename: doc.Filename,
			Metadata: toMetadataResponse(doc.Metadata),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// writeServiceError maps typed errors from the store, model and engine onto
// HTTP status codes without losing the original kind in the response text.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, nav.ErrUnknownNode), errors.Is(err, nav.ErrNoPath):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, nav.ErrDanglingEdge),
		errors.Is(err, nav.ErrDuplicateNodeID),
		errors.Is(err, nav.ErrNegativeWeight):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCorruptedGraph):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Request & Response DTOs ---

type nodePayload struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor int     `json:"floor"`
	Type  string  `json:"type"`
}

type edgePayload struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

type graphPayload struct {
	Nodes []nodePayload `json:"nodes"`
	Edges []edgePayload `json:"edges"`
}

func (g graphPayload) toDomain() domain.Graph {
	out := domain.Graph{
		Nodes: make([]domain.Node, 0, len(g.Nodes)),
		Edges: make([]domain.Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, domain.Node{
			ID:    n.ID,
			X:     n.X,
			Y:     n.Y,
			Floor: n.Floor,
			Type:  n.Type,
		})
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, domain.Edge{From: e.From, To: e.To, Weight: e.Weight})
	}
	return out
}

type createGraphRequest struct {
	University string        `json:"university"`
	Address    string        `json:"address"`
	Graph      *graphPayload `json:"graph"`
}

type updateGraphRequest struct {
	Address    string        `json:"address"`
	University *string       `json:"university"`
	Graph      *graphPayload `json:"graph"`
}

type routeRequest struct {
	Address string `json:"address"`
	StartID string `json:"startId"`
	EndID   string `json:"endId"`
}

type routeResponse struct {
	Path []nodePayload `json:"path"`
}

type graphSummaryResponse struct {
	ID         int64  `json:"id"`
	University string `json:"university"`
	Address    string `json:"address"`
}

type photoURLsResponse struct {
	URLs []string `json:"urls"`
}

type metadataResponse struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

func toMetadataResponse(meta search.Metadata) metadataResponse {
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	return metadataResponse{Title: meta.Title, Author: meta.Author, Tags: tags}
}

type searchResultResponse struct {
	Filename   string           `json:"filename"`
	Similarity float64          `json:"similarity"`
	Snippet    string           `json:"snippet"`
	Metadata   metadataResponse `json:"metadata"`
}

type documentResponse struct {
	Filename string           `json:"filename"`
	Metadata metadataResponse `json:"metadata"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
