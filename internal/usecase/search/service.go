package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/domain"
	"github.com/homez-ai/searchd/internal/metrics"
)

// Config holds ranking and limit settings.
type Config struct {
	CategoryBoost float64
	DefaultLimit  int
	MaxLimit      int
}

// Service orchestrates a semantic catalog search: one query embedding, KNN
// retrieval per entity type, category-boosted ranking.
type Service struct {
	retriever Retriever
	embed     Embedder
	ranker    *Ranker
	cfg       Config
	logger    *zap.Logger
}

// New creates a search service.
func New(retriever Retriever, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		embed:     embed,
		ranker:    NewRanker(cfg.CategoryBoost),
		cfg:       cfg,
		logger:    logger,
	}
}

// Search embeds the query once and searches both entity types concurrently.
// The raw query doubles as the category hint. A failed type is reported in
// Unavailable with an empty slice; only when every type fails does Search
// return an error.
func (s *Service) Search(ctx context.Context, query string, limit int) (*domain.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.SearchRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidArgument)
	}
	// limit 0 means "not specified" and falls back to the default; an explicit
	// negative limit is rejected before any embedding or store access.
	if limit < 0 {
		metrics.SearchRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, domain.ErrInvalidArgument)
	}
	limit = s.clampLimit(limit)

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	types := domain.EntityTypes()
	ranked := make([][]domain.ResultItem, len(types))
	failed := make([]bool, len(types))

	var wg sync.WaitGroup
	for i, typ := range types {
		i, typ := i, typ
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := s.retriever.Search(ctx, typ, embResult.Embedding, limit)
			if err != nil {
				s.logger.Error("Entity type search failed",
					zap.String("entity_type", string(typ)),
					zap.Error(err),
				)
				failed[i] = true
				return
			}
			items, err := s.ranker.Rank(hits, query, limit)
			if err != nil {
				s.logger.Error("Ranking failed",
					zap.String("entity_type", string(typ)),
					zap.Error(err),
				)
				failed[i] = true
				return
			}
			ranked[i] = items
			metrics.SearchCandidatesReturned.WithLabelValues(string(typ)).Observe(float64(len(ranked[i])))
		}()
	}
	wg.Wait()

	resp := &domain.SearchResponse{
		Products: []domain.ResultItem{},
		Services: []domain.ResultItem{},
	}
	for i, typ := range types {
		if failed[i] {
			resp.Unavailable = append(resp.Unavailable, typ)
			continue
		}
		switch typ {
		case domain.TypeProduct:
			resp.Products = ranked[i]
		case domain.TypeService:
			resp.Services = ranked[i]
		}
	}

	if len(resp.Unavailable) == len(types) {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("all entity types unavailable: %w", domain.ErrStoreUnavailable)
	}
	if resp.Degraded() {
		metrics.SearchRequestsTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	}

	return resp, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit == 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}
