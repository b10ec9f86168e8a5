package domain

// Known node types. The enumeration is open: snapshots may carry types that
// are not listed here and they round-trip untouched.
const (
	NodeTypeCabinet  = "cabinet"
	NodeTypeCorridor = "corridor"
	NodeTypeStairs   = "stairs"
	NodeTypeToilet   = "toilet"
)

// Node is a physical location inside a building: a room, a stretch of
// corridor, a stairwell landing.
type Node struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor int     `json:"floor"`
	Type  string  `json:"type"`
}

// Edge connects two nodes. The encoding is directed (from/to) but traversal
// is undirected: an edge A->B makes B reachable from A and A from B at the
// same cost. Weight must be non-negative; zero is allowed.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// Graph is a complete snapshot of one building's navigable space. A snapshot
// is immutable once fetched; updates replace it wholesale.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
