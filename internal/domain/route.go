package domain

// Route is a computed path through a building. Path carries full node
// attributes so callers can render floor transitions and coordinates.
type Route struct {
	Path        []Node
	TotalWeight float64
}
