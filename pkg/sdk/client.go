package searchd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/db"
	dbRedis "github.com/homez-ai/searchd/internal/db/redis"
	"github.com/homez-ai/searchd/internal/domain"
	catalogrepo "github.com/homez-ai/searchd/internal/repository/catalog"
	vectorrepo "github.com/homez-ai/searchd/internal/repository/vector"
	healthuc "github.com/homez-ai/searchd/internal/usecase/health"
	ingestuc "github.com/homez-ai/searchd/internal/usecase/ingest"
	searchuc "github.com/homez-ai/searchd/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces kept narrow for substitution in tests.
type searchUseCase interface {
	Search(ctx context.Context, query string, limit int) (*domain.SearchResponse, error)
}

type ingestUseCase interface {
	IngestProduct(ctx context.Context, p *domain.Product) error
	IngestService(ctx context.Context, s *domain.Service) error
	IngestProducts(ctx context.Context, products []*domain.Product) error
	IngestServices(ctx context.Context, services []*domain.Service) error
}

type catalogStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetService(ctx context.Context, id string) (*domain.Service, error)
	Delete(ctx context.Context, typ domain.EntityType, id string) error
}

// Client is the searchd SDK entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	ingestSvc ingestUseCase
	catalog   catalogStore
	healthSvc healthUseCase
	obs       *observer
}

// New creates a searchd Client, connects to the database, and ensures the
// vector indexes exist. The provided context is used for the initial
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: 768,
		hnswM:            32,
		hnswEFConstruct:  400,
		categoryBoost:    0.1,
		defaultLimit:     2,
		maxLimit:         100,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("searchd: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("searchd: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("searchd: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(ctx, store, cfg, obs)
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	vecRepo := vectorrepo.New(store, vectorrepo.Config{
		Dimensions:  cfg.vectorDimensions,
		M:           cfg.hnswM,
		EFConstruct: cfg.hnswEFConstruct,
	})
	if err := vecRepo.EnsureIndexes(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("searchd: ensure indexes: %w", err)
	}
	catalogRepo := catalogrepo.New(store, cfg.vectorDimensions)

	// Embedder: noop when not configured; every operation then fails with a
	// clear error instead of a nil dereference.
	var emb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}
	adapter := &batchAdapter{inner: emb}

	nop := zap.NewNop()
	ingestSvc := ingestuc.New(catalogRepo, adapter, nil, nop)
	searchSvc := searchuc.New(vecRepo, adapter, searchuc.Config{
		CategoryBoost: cfg.categoryBoost,
		DefaultLimit:  cfg.defaultLimit,
		MaxLimit:      cfg.maxLimit,
	}, nop)
	healthSvc := healthuc.New(store, nil, vecRepo)

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		ingestSvc: ingestSvc,
		catalog:   catalogRepo,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs a semantic catalog search across both entity types.
// limit 0 uses the configured default; a negative limit is rejected
// with ErrInvalidArgument.
func (c *Client) Search(ctx context.Context, query string, limit int) (res SearchResults, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	resp, err := c.searchSvc.Search(ctx, query, limit)
	if err != nil {
		return SearchResults{}, fmt.Errorf("search: %w", err)
	}

	res = SearchResults{
		Products: fromInternalResults(resp.Products),
		Services: fromInternalResults(resp.Services),
	}
	for _, typ := range resp.Unavailable {
		res.Unavailable = append(res.Unavailable, string(typ))
	}
	return res, nil
}

// Products returns the product catalog service.
func (c *Client) Products() *ProductService {
	return &ProductService{ingest: c.ingestSvc, catalog: c.catalog, obs: c.obs}
}

// Services returns the service catalog service.
func (c *Client) Services() *ServiceService {
	return &ServiceService{ingest: c.ingestSvc, catalog: c.catalog, obs: c.obs}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// BatchEmbed uses the public batch path when available.
func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}
	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// batchAdapter guarantees a BatchEmbed method over any domain.Embedder.
type batchAdapter struct {
	inner domain.Embedder
}

func (b *batchAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return b.inner.Embed(ctx, text)
}

func (b *batchAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := b.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, b.inner, texts)
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"searchd: embedder not configured (use WithEmbedder)",
	)
}
