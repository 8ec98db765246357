package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/homez-ai/searchd/internal/domain"
	"github.com/homez-ai/searchd/internal/repository/vector"
)

// Ranker orders KNN candidates by effective similarity: the cosine similarity
// plus a fixed boost when the candidate's category matches the hint.
type Ranker struct {
	boost float64
}

// NewRanker creates a ranker with the given category boost.
func NewRanker(boost float64) *Ranker {
	return &Ranker{boost: boost}
}

// Rank applies the category boost, sorts by effective similarity descending,
// and truncates to limit. Ties keep retrieval order (stable sort), so of two
// equal scores the closer vector wins. The input slice is not modified.
// limit must be positive; a non-positive limit is a caller bug, never an
// implicit "return everything".
func (r *Ranker) Rank(hits []vector.Hit, hint string, limit int) ([]domain.ResultItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, domain.ErrInvalidArgument)
	}
	if len(hits) == 0 {
		return []domain.ResultItem{}, nil
	}

	items := make([]domain.ResultItem, 0, len(hits))
	for _, h := range hits {
		score := h.Similarity
		if r.categoryMatches(h.Category, hint) {
			score += r.boost
		}
		items = append(items, domain.ResultItem{ID: h.ID, Similarity: score})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Similarity > items[j].Similarity
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// categoryMatches reports whether the category contains the hint,
// case-insensitive. An empty hint never matches.
func (r *Ranker) categoryMatches(category, hint string) bool {
	hint = strings.TrimSpace(hint)
	if hint == "" || category == "" {
		return false
	}
	return strings.Contains(strings.ToLower(category), strings.ToLower(hint))
}
