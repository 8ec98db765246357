package searchd

import "github.com/homez-ai/searchd/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument   = domain.ErrInvalidArgument
	ErrNotFound          = domain.ErrNotFound
	ErrEmbedding         = domain.ErrEmbedding
	ErrStoreUnavailable  = domain.ErrStoreUnavailable
	ErrDimensionMismatch = domain.ErrDimensionMismatch
)
