package domain

// GraphRecord is the persisted entity for one building. Address is the unique
// business key used by routing queries; ID is the surrogate key assigned by
// the store.
type GraphRecord struct {
	ID         int64
	University string
	Address    string
	Graph      Graph
}

// GraphSummary is the listing view of a record, without the graph payload.
type GraphSummary struct {
	ID         int64
	University string
	Address    string
}
