package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mpetrenko/campusnav/internal/domain"
)

// ErrMissingURI indicates the Neo4j URI is not configured.
var ErrMissingURI = errors.New("neo4j URI is required")

// Neo4jOptions configures the Neo4j-backed store.
type Neo4jOptions struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// Neo4jStore keeps each record as a Building node. The snapshot is stored as
// a JSON property; the uniqueness constraint on address gives the same
// atomic conflict semantics as the SQLite UNIQUE index.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// OpenNeo4j establishes a Bolt connection and ensures the address uniqueness
// constraint exists.
func OpenNeo4j(ctx context.Context, opts Neo4jOptions) (*Neo4jStore, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	s := &Neo4jStore{driver: driver, database: opts.Database}
	if err := s.ensureConstraint(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Neo4jStore) ensureConstraint(ctx context.Context) error {
	_, err := s.write(ctx,
		`CREATE CONSTRAINT building_address IF NOT EXISTS
		 FOR (b:Building) REQUIRE b.address IS UNIQUE`, nil)
	if err != nil {
		return fmt.Errorf("ensure address constraint: %w", err)
	}
	return nil
}

func (s *Neo4jStore) Create(ctx context.Context, university, address string, graph domain.Graph) (int64, error) {
	payload, err := json.Marshal(graph)
	if err != nil {
		return 0, fmt.Errorf("encode graph: %w", err)
	}

	records, err := s.write(ctx,
		`CREATE (b:Building {university: $university, address: $address, graph: $graph})
		 RETURN id(b) AS id`,
		map[string]any{
			"university": university,
			"address":    address,
			"graph":      string(payload),
		})
	if err != nil {
		if isConstraintViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("create building node: %w", err)
	}
	if len(records) == 0 {
		return 0, errors.New("create building node: no id returned")
	}

	id, _ := records[0].Get("id")
	idVal, ok := id.(int64)
	if !ok {
		return 0, fmt.Errorf("create building node: unexpected id type %T", id)
	}
	return idVal, nil
}

func (s *Neo4jStore) GetByAddress(ctx context.Context, address string) (domain.GraphRecord, error) {
	records, err := s.read(ctx,
		`MATCH (b:Building {address: $address})
		 RETURN id(b) AS id, b.university AS university, b.address AS address, b.graph AS graph`,
		map[string]any{"address": address})
	if err != nil {
		return domain.GraphRecord{}, fmt.Errorf("fetch building node: %w", err)
	}
	if len(records) == 0 {
		return domain.GraphRecord{}, ErrNotFound
	}

	rec := domain.GraphRecord{}
	row := records[0]
	if v, ok := row.Get("id"); ok {
		rec.ID, _ = v.(int64)
	}
	if v, ok := row.Get("university"); ok {
		rec.University, _ = v.(string)
	}
	if v, ok := row.Get("address"); ok {
		rec.Address, _ = v.(string)
	}

	payload, _ := row.Get("graph")
	payloadStr, ok := payload.(string)
	if !ok {
		return domain.GraphRecord{}, fmt.Errorf("building %q has no graph payload", address)
	}
	if err := json.Unmarshal([]byte(payloadStr), &rec.Graph); err != nil {
		return domain.GraphRecord{}, fmt.Errorf("decode stored graph for %q: %w", address, err)
	}
	return rec, nil
}

func (s *Neo4jStore) ListAll(ctx context.Context) ([]domain.GraphSummary, error) {
	records, err := s.read(ctx,
		`MATCH (b:Building)
		 RETURN id(b) AS id, b.university AS university, b.address AS address
		 ORDER BY id`, nil)
	if err != nil {
		return nil, fmt.Errorf("list building nodes: %w", err)
	}

	var summaries []domain.GraphSummary
	for _, row := range records {
		var sum domain.GraphSummary
		if v, ok := row.Get("id"); ok {
			sum.ID, _ = v.(int64)
		}
		if v, ok := row.Get("university"); ok {
			sum.University, _ = v.(string)
		}
		if v, ok := row.Get("address"); ok {
			sum.Address, _ = v.(string)
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *Neo4jStore) UpdateByAddress(ctx context.Context, address string, patch UpdatePatch) error {
	if patch.Empty() {
		return nil
	}

	sets := make([]string, 0, 2)
	params := map[string]any{"address": address}
	if patch.University != nil {
		sets = append(sets, "b.university = $university")
		params["university"] = *patch.University
	}
	if patch.Graph != nil {
		payload, err := json.Marshal(*patch.Graph)
		if err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
		sets = append(sets, "b.graph = $graph")
		params["graph"] = string(payload)
	}

	query := fmt.Sprintf(
		`MATCH (b:Building {address: $address}) SET %s RETURN count(b) AS matched`,
		strings.Join(sets, ", "))

	records, err := s.write(ctx, query, params)
	if err != nil {
		return fmt.Errorf("update building node: %w", err)
	}
	if matchedCount(records) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Neo4jStore) DeleteByAddress(ctx context.Context, address string) error {
	records, err := s.write(ctx,
		`MATCH (b:Building {address: $address})
		 WITH b, count(b) AS matched
		 DETACH DELETE b
		 RETURN matched`,
		map[string]any{"address": address})
	if err != nil {
		return fmt.Errorf("delete building node: %w", err)
	}
	if matchedCount(records) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) write(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)
	return s.collect(ctx, session, cypher, params)
}

func (s *Neo4jStore) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)
	return s.collect(ctx, session, cypher, params)
}

func (s *Neo4jStore) collect(ctx context.Context, session neo4j.SessionWithContext, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

func matchedCount(records []*neo4j.Record) int64 {
	if len(records) == 0 {
		return 0
	}
	v, ok := records[0].Get("matched")
	if !ok {
		return 0
	}
	count, _ := v.(int64)
	return count
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.Contains(neoErr.Code, "ConstraintValidationFailed") ||
			strings.Contains(neoErr.Code, "ConstraintViolation")
	}
	return false
}
