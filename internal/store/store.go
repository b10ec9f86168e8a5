// Package store persists building graph records keyed by address. Three
// backends implement the same contract: SQLite (default), Neo4j, and an
// in-memory store used by tests and local development.
package store

import (
	"context"
	"errors"

	"github.com/mpetrenko/campusnav/internal/domain"
)

var (
	// ErrConflict reports a create for an address that already has a record.
	ErrConflict = errors.New("a graph for this address already exists")
	// ErrNotFound reports a lookup, update or delete for an absent address.
	ErrNotFound = errors.New("graph not found")
)

// UpdatePatch carries the fields an update applies. Nil means "leave as is".
// A non-nil empty graph is a valid replacement.
type UpdatePatch struct {
	University *string
	Graph      *domain.Graph
}

// Empty reports whether the patch would change nothing.
func (p UpdatePatch) Empty() bool {
	return p.University == nil && p.Graph == nil
}

// Store is the persistence contract for graph records. Address uniqueness is
// enforced by the backend itself (unique index or constraint), so concurrent
// creates racing on one address resolve to a single winner. All mutating
// calls are single-record transactions.
type Store interface {
	Create(ctx context.Context, university, address string, graph domain.Graph) (int64, error)
	GetByAddress(ctx context.Context, address string) (domain.GraphRecord, error)
	ListAll(ctx context.Context) ([]domain.GraphSummary, error)
	UpdateByAddress(ctx context.Context, address string, patch UpdatePatch) error
	DeleteByAddress(ctx context.Context, address string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
