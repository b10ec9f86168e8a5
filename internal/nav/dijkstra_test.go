package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrenko/campusnav/internal/domain"
)

func mustModel(t *testing.T, g domain.Graph) *Model {
	t.Helper()
	m, err := BuildModel(g)
	require.NoError(t, err)
	return m
}

func pathIDs(route domain.Route) []string {
	ids := make([]string, 0, len(route.Path))
	for _, n := range route.Path {
		ids = append(ids, n.ID)
	}
	return ids
}

func threeFloorGraph() domain.Graph {
	return domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", X: 0, Y: 0, Floor: 1, Type: domain.NodeTypeCabinet},
			{ID: "B", X: 5, Y: 0, Floor: 1, Type: domain.NodeTypeCorridor},
			{ID: "C", X: 5, Y: 5, Floor: 2, Type: domain.NodeTypeStairs},
		},
		Edges: []domain.Edge{
			{From: "A", To: "B", Weight: 1},
			{From: "B", To: "C", Weight: 5},
		},
	}
}

func TestShortestPathAcrossFloors(t *testing.T) {
	m := mustModel(t, threeFloorGraph())

	route, err := m.ShortestPath("A", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, pathIDs(route))
	assert.InDelta(t, 6, route.TotalWeight, 1e-9)
}

func TestShortestPathPrefersCheaperShortcut(t *testing.T) {
	g := threeFloorGraph()
	g.Edges = append(g.Edges, domain.Edge{From: "A", To: "C", Weight: 3})
	m := mustModel(t, g)

	route, err := m.ShortestPath("A", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, pathIDs(route))
	assert.InDelta(t, 3, route.TotalWeight, 1e-9)
}

func TestShortestPathSameStartAndEnd(t *testing.T) {
	m := mustModel(t, threeFloorGraph())

	route, err := m.ShortestPath("B", "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, pathIDs(route))
	assert.Zero(t, route.TotalWeight)
}

func TestShortestPathUnknownNode(t *testing.T) {
	m := mustModel(t, threeFloorGraph())

	_, err := m.ShortestPath("A", "nope")
	require.ErrorIs(t, err, ErrUnknownNode)
	assert.NotErrorIs(t, err, ErrNoPath)

	_, err = m.ShortestPath("nope", "A")
	require.ErrorIs(t, err, ErrUnknownNode)
}

func TestShortestPathDisconnected(t *testing.T) {
	g := threeFloorGraph()
	g.Nodes = append(g.Nodes, domain.Node{ID: "island", Floor: 9})
	m := mustModel(t, g)

	_, err := m.ShortestPath("A", "island")
	require.ErrorIs(t, err, ErrNoPath)
	assert.NotErrorIs(t, err, ErrUnknownNode)
}

func TestShortestPathTreatsEdgesAsUndirected(t *testing.T) {
	// The only edge is declared C->A; traversal A->C must still work.
	m := mustModel(t, domain.Graph{
		Nodes: []domain.Node{{ID: "A"}, {ID: "C"}},
		Edges: []domain.Edge{{From: "C", To: "A", Weight: 2}},
	})

	route, err := m.ShortestPath("A", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, pathIDs(route))
	assert.InDelta(t, 2, route.TotalWeight, 1e-9)
}

func TestShortestPathReturnsEnrichedNodes(t *testing.T) {
	m := mustModel(t, threeFloorGraph())

	route, err := m.ShortestPath("A", "B")
	require.NoError(t, err)
	require.Len(t, route.Path, 2)
	assert.Equal(t, domain.Node{ID: "B", X: 5, Y: 0, Floor: 1, Type: domain.NodeTypeCorridor}, route.Path[1])
}

func TestShortestPathTieBreakIsDeterministic(t *testing.T) {
	// Diamond with two equal-weight paths A-B-D and A-C-D. The engine
	// settles lexicographically smaller ids first, so B wins.
	g := domain.Graph{
		Nodes: []domain.Node{{ID: "A"}, {ID: "C"}, {ID: "B"}, {ID: "D"}},
		Edges: []domain.Edge{
			{From: "A", To: "C", Weight: 1},
			{From: "A", To: "B", Weight: 1},
			{From: "C", To: "D", Weight: 1},
			{From: "B", To: "D", Weight: 1},
		},
	}

	for i := 0; i < 25; i++ {
		m := mustModel(t, g)
		route, err := m.ShortestPath("A", "D")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "D"}, pathIDs(route))
		assert.InDelta(t, 2, route.TotalWeight, 1e-9)
	}
}

func TestShortestPathZeroWeightEdges(t *testing.T) {
	m := mustModel(t, domain.Graph{
		Nodes: []domain.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Edges: []domain.Edge{
			{From: "A", To: "B", Weight: 0},
			{From: "B", To: "C", Weight: 0},
		},
	})

	route, err := m.ShortestPath("A", "C")
	require.NoError(t, err)
	assert.Zero(t, route.TotalWeight)
	assert.Equal(t, []string{"A", "B", "C"}, pathIDs(route))
}

// TestShortestPathMatchesBruteForce cross-checks the engine against an
// exhaustive enumeration of simple paths on a small graph.
func TestShortestPathMatchesBruteForce(t *testing.T) {
	g := domain.Graph{
		Nodes: []domain.Node{
			{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}, {ID: "f"},
		},
		Edges: []domain.Edge{
			{From: "a", To: "b", Weight: 2},
			{From: "a", To: "c", Weight: 4},
			{From: "b", To: "c", Weight: 1},
			{From: "b", To: "d", Weight: 7},
			{From: "c", To: "e", Weight: 3},
			{From: "d", To: "e", Weight: 1},
			{From: "d", To: "f", Weight: 5},
			{From: "e", To: "f", Weight: 7},
		},
	}
	m := mustModel(t, g)

	ids := []string{"a", "b", "c", "d", "e", "f"}
	for _, start := range ids {
		for _, end := range ids {
			route, err := m.ShortestPath(start, end)
			require.NoError(t, err, "%s -> %s", start, end)

			want := bruteForceMinWeight(g, start, end)
			assert.InDelta(t, want, route.TotalWeight, 1e-9, "%s -> %s", start, end)
			assert.InDelta(t, want, pathWeight(t, g, route), 1e-9,
				"reported path weight must match its edges for %s -> %s", start, end)
		}
	}
}

// bruteForceMinWeight enumerates every simple path and returns the minimum
// total weight.
func bruteForceMinWeight(g domain.Graph, start, end string) float64 {
	adj := make(map[string][]domain.Edge)
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e)
		adj[e.To] = append(adj[e.To], domain.Edge{From: e.To, To: e.From, Weight: e.Weight})
	}

	best := math.Inf(1)
	visited := map[string]bool{start: true}
	var walk func(at string, total float64)
	walk = func(at string, total float64) {
		if at == end {
			if total < best {
				best = total
			}
			return
		}
		for _, e := range adj[at] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			walk(e.To, total+e.Weight)
			visited[e.To] = false
		}
	}
	walk(start, 0)
	return best
}

// pathWeight sums the weights along a returned route and fails if any hop is
// not an edge of the original graph.
func pathWeight(t *testing.T, g domain.Graph, route domain.Route) float64 {
	t.Helper()

	weights := make(map[[2]string]float64)
	for _, e := range g.Edges {
		weights[[2]string{e.From, e.To}] = e.Weight
		weights[[2]string{e.To, e.From}] = e.Weight
	}

	var total float64
	for i := 1; i < len(route.Path); i++ {
		key := [2]string{route.Path[i-1].ID, route.Path[i].ID}
		w, ok := weights[key]
		require.True(t, ok, "hop %s -> %s is not an edge", key[0], key[1])
		total += w
	}
	return total
}
