package chi

import "github.com/homez-ai/searchd/internal/domain"

// ErrorCode is a machine-readable error discriminator.
type ErrorCode string

const (
	// CodeBadRequest signals an unparseable request.
	CodeBadRequest ErrorCode = "bad_request"
	// CodeValidationFailed signals a well-formed but invalid request.
	CodeValidationFailed ErrorCode = "validation_failed"
	// CodeNotFound signals a missing entity.
	CodeNotFound ErrorCode = "not_found"
	// CodeDimensionMismatch signals a vector of the wrong dimensionality.
	CodeDimensionMismatch ErrorCode = "dimension_mismatch"
	// CodeEmbeddingProviderError signals an upstream embedding failure.
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	// CodeStoreUnavailable signals that the catalog store is unreachable.
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	// CodeInternalError signals an unexpected server-side failure.
	CodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// IngestResponse acknowledges a submission accepted onto the durable queue.
// Synchronous writes return the persisted entity instead.
type IngestResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"` // always "accepted"
	QueueToken string `json:"queueToken,omitempty"`
}

// BatchIngestRequest carries entities for batch indexing. Exactly one of the
// two lists is used per endpoint.
type BatchIngestRequest struct {
	Products []*domain.Product `json:"products,omitempty"`
	Services []*domain.Service `json:"services,omitempty"`
}

// BatchIngestResponse acknowledges a batch submission.
type BatchIngestResponse struct {
	Indexed int `json:"indexed"`
}

// DeleteResponse acknowledges an asynchronous delete.
type DeleteResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	QueueToken string `json:"queueToken,omitempty"`
}

// HealthResponse reports aggregated component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
