// Package nav holds the in-memory graph model and the shortest-path engine.
// A Model is built fresh from a stored snapshot for every query and discarded
// afterwards; nothing in this package is shared across requests.
package nav

import (
	"errors"
	"fmt"

	"github.com/mpetrenko/campusnav/internal/domain"
)

// Validation errors returned by BuildModel, each distinct so callers can tell
// what is wrong with a snapshot.
var (
	ErrDanglingEdge    = errors.New("edge references a node that is not in the graph")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrNegativeWeight  = errors.New("negative edge weight")
)

type neighbor struct {
	id     string
	weight float64
}

// Model is a validated, query-ready representation of a building graph.
type Model struct {
	nodes map[string]domain.Node
	// adjacency is symmetric: every edge contributes an entry to both
	// endpoints' lists. Lists keep edge insertion order.
	adjacency map[string][]neighbor
}

// BuildModel validates a snapshot and constructs the adjacency structure the
// path engine consumes. Checks run in a fixed order: dangling edge
// references, duplicate node ids, negative weights.
func BuildModel(g domain.Graph) (*Model, error) {
	ids := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID]++
	}

	for _, e := range g.Edges {
		if _, ok := ids[e.From]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrDanglingEdge, e.From)
		}
		if _, ok := ids[e.To]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrDanglingEdge, e.To)
		}
	}

	for _, n := range g.Nodes {
		if ids[n.ID] > 1 {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
		}
	}

	for _, e := range g.Edges {
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: %s-%s (%g)", ErrNegativeWeight, e.From, e.To, e.Weight)
		}
	}

	m := &Model{
		nodes:     make(map[string]domain.Node, len(g.Nodes)),
		adjacency: make(map[string][]neighbor, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		m.nodes[n.ID] = n
	}
	for _, e := range g.Edges {
		m.adjacency[e.From] = append(m.adjacency[e.From], neighbor{id: e.To, weight: e.Weight})
		m.adjacency[e.To] = append(m.adjacency[e.To], neighbor{id: e.From, weight: e.Weight})
	}
	return m, nil
}

// Node returns the full attributes of a node and whether it exists.
func (m *Model) Node(id string) (domain.Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Size reports the number of nodes in the model.
func (m *Model) Size() int {
	return len(m.nodes)
}
