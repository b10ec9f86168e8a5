package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mpetrenko/campusnav/internal/domain"
	"github.com/mpetrenko/campusnav/internal/nav"
	"github.com/mpetrenko/campusnav/internal/store"
)

var (
	// ErrNoFieldsToUpdate reports an update request carrying neither a
	// university nor a graph.
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrCorruptedGraph reports a stored snapshot that fails validation on
	// read. Write-time validation makes this unreachable in normal
	// operation, so it is surfaced as a server fault rather than a client
	// error.
	ErrCorruptedGraph = errors.New("stored graph failed validation")
)

// NavigationService orchestrates record CRUD and routing queries. It owns no
// state of its own: every routing query materializes a fresh model from the
// fetched snapshot.
type NavigationService struct {
	store  store.Store
	logger *slog.Logger
}

// NewNavigationService constructs a NavigationService.
func NewNavigationService(st store.Store, logger *slog.Logger) *NavigationService {
	return &NavigationService{store: st, logger: logger}
}

// CreateGraphInput carries a new building record.
type CreateGraphInput struct {
	University string
	Address    string
	Graph      domain.Graph
}

// UpdateGraphInput carries a patch for an existing record. Nil fields are
// left untouched.
type UpdateGraphInput struct {
	Address    string
	University *string
	Graph      *domain.Graph
}

// CreateGraph validates the snapshot and persists a new record. The snapshot
// is validated here, before it hits the store, so that a later read never
// sees an invalid graph.
func (s *NavigationService) CreateGraph(ctx context.Context, input CreateGraphInput) (int64, error) {
	if _, err := nav.BuildModel(input.Graph); err != nil {
		return 0, fmt.Errorf("validate graph: %w", err)
	}

	id, err := s.store.Create(ctx, input.University, input.Address, input.Graph)
	if err != nil {
		return 0, err
	}

	s.logger.Info("graph created", "address", input.Address, "id", id,
		"nodes", len(input.Graph.Nodes), "edges", len(input.Graph.Edges))
	return id, nil
}

// UpdateGraph patches an existing record. Only provided fields change; a
// request with no fields is a client error.
func (s *NavigationService) UpdateGraph(ctx context.Context, input UpdateGraphInput) error {
	patch := store.UpdatePatch{University: input.University, Graph: input.Graph}
	if patch.Empty() {
		return ErrNoFieldsToUpdate
	}

	if input.Graph != nil {
		if _, err := nav.BuildModel(*input.Graph); err != nil {
			return fmt.Errorf("validate graph: %w", err)
		}
	}

	if err := s.store.UpdateByAddress(ctx, input.Address, patch); err != nil {
		return err
	}

	s.logger.Info("graph updated", "address", input.Address,
		"university", input.University != nil, "graph", input.Graph != nil)
	return nil
}

// DeleteGraph removes the record for an address.
func (s *NavigationService) DeleteGraph(ctx context.Context, address string) error {
	if err := s.store.DeleteByAddress(ctx, address); err != nil {
		return err
	}
	s.logger.Info("graph deleted", "address", address)
	return nil
}

// ListGraphs returns summaries of all stored records.
func (s *NavigationService) ListGraphs(ctx context.Context) ([]domain.GraphSummary, error) {
	return s.store.ListAll(ctx)
}

// Route answers a shortest-path query for a building. Store misses propagate
// as store.ErrNotFound; an invalid stored snapshot is reported as
// ErrCorruptedGraph and logged as a data-integrity alarm; engine failures
// (unknown node, no path) propagate unchanged.
func (s *NavigationService) Route(ctx context.Context, address, startID, endID string) (domain.Route, error) {
	rec, err := s.store.GetByAddress(ctx, address)
	if err != nil {
		return domain.Route{}, err
	}

	model, err := nav.BuildModel(rec.Graph)
	if err != nil {
		s.logger.Error("stored graph failed validation", "address", address, "error", err)
		return domain.Route{}, fmt.Errorf("%w: %v", ErrCorruptedGraph, err)
	}

	return model.ShortestPath(startID, endID)
}
