package nav

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/mpetrenko/campusnav/internal/domain"
)

// Query errors returned by ShortestPath. An unknown endpoint is a different
// failure than a valid but disconnected pair.
var (
	ErrUnknownNode = errors.New("node is not in the graph")
	ErrNoPath      = errors.New("no path between the given nodes")
)

// ShortestPath computes the minimum total-weight path between two nodes using
// Dijkstra's algorithm. When several paths share the minimum weight the
// result is deterministic: the frontier breaks distance ties by lexicographic
// node id, so the same snapshot always yields the same path.
func (m *Model) ShortestPath(startID, endID string) (domain.Route, error) {
	start, ok := m.nodes[startID]
	if !ok {
		return domain.Route{}, fmt.Errorf("%w: %q", ErrUnknownNode, startID)
	}
	if _, ok := m.nodes[endID]; !ok {
		return domain.Route{}, fmt.Errorf("%w: %q", ErrUnknownNode, endID)
	}

	if startID == endID {
		return domain.Route{Path: []domain.Node{start}, TotalWeight: 0}, nil
	}

	dist := map[string]float64{startID: 0}
	prev := make(map[string]string)
	settled := make(map[string]bool)

	frontier := &frontierHeap{{id: startID, dist: 0}}
	for frontier.Len() > 0 {
		item := heap.Pop(frontier).(frontierItem)
		if settled[item.id] {
			continue
		}
		settled[item.id] = true
		if item.id == endID {
			break
		}

		for _, nb := range m.adjacency[item.id] {
			if settled[nb.id] {
				continue
			}
			candidate := item.dist + nb.weight
			if cur, seen := dist[nb.id]; !seen || candidate < cur {
				dist[nb.id] = candidate
				prev[nb.id] = item.id
				heap.Push(frontier, frontierItem{id: nb.id, dist: candidate})
			}
		}
	}

	if !settled[endID] {
		return domain.Route{}, fmt.Errorf("%w: %q -> %q", ErrNoPath, startID, endID)
	}

	var path []domain.Node
	for id := endID; ; id = prev[id] {
		path = append(path, m.nodes[id])
		if id == startID {
			break
		}
	}
	reverse(path)

	return domain.Route{Path: path, TotalWeight: dist[endID]}, nil
}

type frontierItem struct {
	id   string
	dist float64
}

// frontierHeap is a min-heap over tentative distances with node id as the
// secondary key. The secondary key is what makes expansion order, and thus
// equal-weight path selection, reproducible.
type frontierHeap []frontierItem

func (h frontierHeap) Len() int { return len(h) }

func (h frontierHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].id < h[j].id
}

func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *frontierHeap) Push(x any) {
	*h = append(*h, x.(frontierItem))
}

func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func reverse(nodes []domain.Node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
