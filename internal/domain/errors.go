package domain

import "errors"

var (
	// ErrInvalidArgument signals a user-correctable bad input (empty query, non-positive limit).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrEmbedding signals an embedding provider failure or rejected input.
	// Fatal for the enclosing request; there is no fallback vector.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrStoreUnavailable signals that the entity/vector store is unreachable.
	// Scoped to one entity type during search; partial results are allowed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDimensionMismatch signals a vector whose dimensionality does not match
	// the index. A deployment defect: vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrParse signals a stored row that fails to map to the entity shape.
	// Isolated per row: logged and skipped, never aborts the batch.
	ErrParse = errors.New("row parse error")
)
