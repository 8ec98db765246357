package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/domain"
	healthuc "github.com/homez-ai/searchd/internal/usecase/health"
	ingestuc "github.com/homez-ai/searchd/internal/usecase/ingest"
)

const maxBatchSize = 100

// Searcher runs a semantic catalog search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*domain.SearchResponse, error)
}

// Ingester accepts catalog entities for indexing.
type Ingester interface {
	SubmitProduct(ctx context.Context, p *domain.Product) (ingestuc.Outcome, error)
	SubmitService(ctx context.Context, s *domain.Service) (ingestuc.Outcome, error)
	SubmitDelete(ctx context.Context, typ domain.EntityType, id string) (ingestuc.Outcome, error)
	IngestProducts(ctx context.Context, products []*domain.Product) error
	IngestServices(ctx context.Context, services []*domain.Service) error
}

// CatalogReader fetches stored catalog entities.
type CatalogReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetService(ctx context.Context, id string) (*domain.Service, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API for catalog search and ingestion.
type Server struct {
	search        Searcher
	ingest        Ingester
	catalog       CatalogReader
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	ingest Ingester,
	catalog CatalogReader,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		ingest:  ingest,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, CodeDimensionMismatch),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
	}
	return s
}

// Routes mounts all API routes on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.Search)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", s.SubmitProduct)
			r.Post("/batch", s.BatchProducts)
			r.Get("/{id}", s.GetProduct)
			r.Delete("/{id}", s.DeleteProduct)
		})
		r.Route("/services", func(r chi.Router) {
			r.Post("/", s.SubmitService)
			r.Post("/batch", s.BatchServices)
			r.Get("/{id}", s.GetService)
			r.Delete("/{id}", s.DeleteService)
		})
	})
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		// q accepted as shorthand
		query = r.URL.Query().Get("q")
	}

	limit := 0 // absent: the search service applies its default
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SubmitProduct handles POST /api/v1/products.
func (s *Server) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	out, err := s.ingest.SubmitProduct(r.Context(), &p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if out.Queued {
		writeJSON(w, http.StatusAccepted, IngestResponse{ID: p.ID, Status: "accepted", QueueToken: out.Token})
		return
	}
	// Synchronous path: the entity is persisted (and normalized) by now.
	writeJSON(w, http.StatusCreated, &p)
}

// SubmitService handles POST /api/v1/services.
func (s *Server) SubmitService(w http.ResponseWriter, r *http.Request) {
	var sv domain.Service
	if err := json.NewDecoder(r.Body).Decode(&sv); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	out, err := s.ingest.SubmitService(r.Context(), &sv)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if out.Queued {
		writeJSON(w, http.StatusAccepted, IngestResponse{ID: sv.ID, Status: "accepted", QueueToken: out.Token})
		return
	}
	writeJSON(w, http.StatusCreated, &sv)
}

// BatchProducts handles POST /api/v1/products/batch.
func (s *Server) BatchProducts(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !validBatchSize(w, len(req.Products)) {
		return
	}

	if err := s.ingest.IngestProducts(r.Context(), req.Products); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BatchIngestResponse{Indexed: len(req.Products)})
}

// BatchServices handles POST /api/v1/services/batch.
func (s *Server) BatchServices(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !validBatchSize(w, len(req.Services)) {
		return
	}

	if err := s.ingest.IngestServices(r.Context(), req.Services); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BatchIngestResponse{Indexed: len(req.Services)})
}

// GetProduct handles GET /api/v1/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetService handles GET /api/v1/services/{id}.
func (s *Server) GetService(w http.ResponseWriter, r *http.Request) {
	sv, err := s.catalog.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	s.deleteEntity(w, r, domain.TypeProduct)
}

// DeleteService handles DELETE /api/v1/services/{id}.
func (s *Server) DeleteService(w http.ResponseWriter, r *http.Request) {
	s.deleteEntity(w, r, domain.TypeService)
}

func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request, typ domain.EntityType) {
	id := chi.URLParam(r, "id")

	out, err := s.ingest.SubmitDelete(r.Context(), typ, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if out.Queued {
		writeJSON(w, http.StatusAccepted, DeleteResponse{
			ID:         id,
			Status:     "accepted",
			QueueToken: out.Token,
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func validBatchSize(w http.ResponseWriter, n int) bool {
	if n == 0 || n > maxBatchSize {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			"batch size must be between 1 and "+strconv.Itoa(maxBatchSize))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrEmbedding,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
