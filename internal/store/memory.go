package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mpetrenko/campusnav/internal/domain"
)

// MemoryStore is an in-memory Store used for unit tests and local runs
// without a database. A single mutex around the record map makes the
// create-uniqueness check atomic, matching the constraint semantics of the
// durable backends.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[string]domain.GraphRecord
}

// NewMemoryStore instantiates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		records: make(map[string]domain.GraphRecord),
	}
}

func (m *MemoryStore) Create(_ context.Context, university, address string, graph domain.Graph) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[address]; exists {
		return 0, ErrConflict
	}

	id := m.nextID
	m.nextID++
	m.records[address] = domain.GraphRecord{
		ID:         id,
		University: university,
		Address:    address,
		Graph:      cloneGraph(graph),
	}
	return id, nil
}

func (m *MemoryStore) GetByAddress(_ context.Context, address string) (domain.GraphRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.records[address]
	if !exists {
		return domain.GraphRecord{}, ErrNotFound
	}
	rec.Graph = cloneGraph(rec.Graph)
	return rec, nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]domain.GraphSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summaries := make([]domain.GraphSummary, 0, len(m.records))
	for _, rec := range m.records {
		summaries = append(summaries, domain.GraphSummary{
			ID:         rec.ID,
			University: rec.University,
			Address:    rec.Address,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (m *MemoryStore) UpdateByAddress(_ context.Context, address string, patch UpdatePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.records[address]
	if !exists {
		return ErrNotFound
	}

	if patch.University != nil {
		rec.University = *patch.University
	}
	if patch.Graph != nil {
		rec.Graph = cloneGraph(*patch.Graph)
	}
	m.records[address] = rec
	return nil
}

func (m *MemoryStore) DeleteByAddress(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[address]; !exists {
		return ErrNotFound
	}
	delete(m.records, address)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}

// Put inserts or replaces a record without validation. Tests use it to stage
// snapshots that would be rejected by the write path.
func (m *MemoryStore) Put(rec domain.GraphRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == 0 {
		rec.ID = m.nextID
		m.nextID++
	}
	m.records[rec.Address] = rec
}

func cloneGraph(g domain.Graph) domain.Graph {
	out := domain.Graph{}
	if g.Nodes != nil {
		out.Nodes = append([]domain.Node(nil), g.Nodes...)
	}
	if g.Edges != nil {
		out.Edges = append([]domain.Edge(nil), g.Edges...)
	}
	return out
}
