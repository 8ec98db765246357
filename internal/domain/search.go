package domain

// ResultItem is one ranked hit: entity id plus its effective similarity score.
// Derived per query and never persisted.
type ResultItem struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// SearchResponse carries the two ranked sequences, each capped at the caller's
// limit and ordered by descending similarity. Unavailable names the entity
// types whose store could not be reached; their slice is empty, not missing.
type SearchResponse struct {
	Products    []ResultItem `json:"products"`
	Services    []ResultItem `json:"services"`
	Unavailable []EntityType `json:"unavailable,omitempty"`
}

// Degraded reports whether at least one entity type failed.
func (r *SearchResponse) Degraded() bool { return len(r.Unavailable) > 0 }
