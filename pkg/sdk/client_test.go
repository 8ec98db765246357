package searchd

import (
	"context"
	"errors"
	"testing"

	"github.com/homez-ai/searchd/internal/domain"
	healthuc "github.com/homez-ai/searchd/internal/usecase/health"
)

// --- Mocks ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, query string, limit int) (*domain.SearchResponse, error)
}

func (m *mockSearchUC) Search(ctx context.Context, query string, limit int) (*domain.SearchResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return &domain.SearchResponse{Products: []domain.ResultItem{}, Services: []domain.ResultItem{}}, nil
}

type mockIngestUC struct {
	ingestProductFn  func(ctx context.Context, p *domain.Product) error
	ingestServiceFn  func(ctx context.Context, s *domain.Service) error
	ingestProductsFn func(ctx context.Context, products []*domain.Product) error
	ingestServicesFn func(ctx context.Context, services []*domain.Service) error
}

func (m *mockIngestUC) IngestProduct(ctx context.Context, p *domain.Product) error {
	if m.ingestProductFn != nil {
		return m.ingestProductFn(ctx, p)
	}
	return nil
}

func (m *mockIngestUC) IngestService(ctx context.Context, s *domain.Service) error {
	if m.ingestServiceFn != nil {
		return m.ingestServiceFn(ctx, s)
	}
	return nil
}

func (m *mockIngestUC) IngestProducts(ctx context.Context, products []*domain.Product) error {
	if m.ingestProductsFn != nil {
		return m.ingestProductsFn(ctx, products)
	}
	return nil
}

func (m *mockIngestUC) IngestServices(ctx context.Context, services []*domain.Service) error {
	if m.ingestServicesFn != nil {
		return m.ingestServicesFn(ctx, services)
	}
	return nil
}

type mockCatalog struct {
	getProductFn func(ctx context.Context, id string) (*domain.Product, error)
	getServiceFn func(ctx context.Context, id string) (*domain.Service, error)
	deleteFn     func(ctx context.Context, typ domain.EntityType, id string) error
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) GetService(ctx context.Context, id string) (*domain.Service, error) {
	if m.getServiceFn != nil {
		return m.getServiceFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) Delete(ctx context.Context, typ domain.EntityType, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, typ, id)
	}
	return nil
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

func newTestClient(t *testing.T) (*Client, *mockSearchUC, *mockIngestUC, *mockCatalog) {
	t.Helper()
	ms := &mockSearchUC{}
	mi := &mockIngestUC{}
	mc := &mockCatalog{}
	return &Client{
		searchSvc: ms,
		ingestSvc: mi,
		catalog:   mc,
		healthSvc: &mockHealthUC{report: healthuc.Report{Status: healthuc.Healthy}},
	}, ms, mi, mc
}

// --- Tests ---

func TestClientSearch_ConvertsResults(t *testing.T) {
	c, ms, _, _ := newTestClient(t)

	ms.searchFn = func(_ context.Context, query string, limit int) (*domain.SearchResponse, error) {
		if query != "garden" || limit != 3 {
			t.Errorf("unexpected call: %q %d", query, limit)
		}
		return &domain.SearchResponse{
			Products:    []domain.ResultItem{{ID: "p1", Similarity: 0.9}},
			Services:    []domain.ResultItem{},
			Unavailable: []domain.EntityType{domain.TypeService},
		}, nil
	}

	res, err := c.Search(context.Background(), "garden", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].ID != "p1" {
		t.Errorf("unexpected products: %+v", res.Products)
	}
	if !res.Degraded() || res.Unavailable[0] != "service" {
		t.Errorf("unexpected unavailable: %v", res.Unavailable)
	}
}

func TestClientSearch_ErrorPassthrough(t *testing.T) {
	c, ms, _, _ := newTestClient(t)

	ms.searchFn = func(_ context.Context, _ string, _ int) (*domain.SearchResponse, error) {
		return nil, domain.ErrStoreUnavailable
	}

	_, err := c.Search(context.Background(), "q", 0)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestProductUpsert_MapsFields(t *testing.T) {
	c, _, mi, _ := newTestClient(t)

	var got *domain.Product
	mi.ingestProductFn = func(_ context.Context, p *domain.Product) error {
		got = p
		return nil
	}

	err := c.Products().Upsert(context.Background(), Product{
		ID:       "p1",
		Name:     "Trail Backpack",
		Category: "Outdoor",
		Tags:     []string{"hiking"},
		Variants: []Variant{{ID: "v1", SKU: "TB-1", Price: 89.9, Stock: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CategoryName != "Outdoor" {
		t.Errorf("category not mapped: %+v", got)
	}
	if len(got.Variants) != 1 || got.Variants[0].SKU != "TB-1" {
		t.Errorf("variants not mapped: %+v", got.Variants)
	}
}

func TestProductUpsertBatch(t *testing.T) {
	c, _, mi, _ := newTestClient(t)

	mi.ingestProductsFn = func(_ context.Context, products []*domain.Product) error {
		if len(products) != 2 {
			t.Errorf("expected 2 products, got %d", len(products))
		}
		return nil
	}

	err := c.Products().UpsertBatch(context.Background(), []Product{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProductGet_MapsFields(t *testing.T) {
	c, _, _, mc := newTestClient(t)

	mc.getProductFn = func(_ context.Context, id string) (*domain.Product, error) {
		return &domain.Product{ID: id, Name: "Trail Backpack", CategoryName: "Outdoor"}, nil
	}

	p, err := c.Products().Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Category != "Outdoor" || p.Name != "Trail Backpack" {
		t.Errorf("unexpected product: %+v", p)
	}
}

func TestProductDelete_UsesProductType(t *testing.T) {
	c, _, _, mc := newTestClient(t)

	var gotTyp domain.EntityType
	mc.deleteFn = func(_ context.Context, typ domain.EntityType, _ string) error {
		gotTyp = typ
		return nil
	}

	if err := c.Products().Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTyp != domain.TypeProduct {
		t.Errorf("expected product type, got %s", gotTyp)
	}
}

func TestServiceUpsert_MapsPackages(t *testing.T) {
	c, _, mi, _ := newTestClient(t)

	var got *domain.Service
	mi.ingestServiceFn = func(_ context.Context, s *domain.Service) error {
		got = s
		return nil
	}

	err := c.Services().Upsert(context.Background(), Service{
		ID:       "s1",
		Name:     "Deep Cleaning",
		Category: "Home",
		Packages: []Package{{ID: "pk1", Name: "Basic", Price: 50}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Packages) != 1 || got.Packages[0].Name != "Basic" {
		t.Errorf("packages not mapped: %+v", got.Packages)
	}
}

func TestServiceGet_NotFound(t *testing.T) {
	c, _, _, _ := newTestClient(t)

	_, err := c.Services().Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClientHealth(t *testing.T) {
	c, _, _, _ := newTestClient(t)
	c.healthSvc = &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "indexes": healthuc.CheckError},
	}}

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["indexes"] != "error" {
		t.Errorf("unexpected health: %+v", h)
	}
}

// --- Embedder adapters ---

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 2}, nil
}

type fakeBatchEmbedder struct {
	fakeEmbedder
	calls int
}

func (f *fakeBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.2}
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: 5}, nil
}

func TestEmbedderAdapter_BatchUsesNativePath(t *testing.T) {
	fb := &fakeBatchEmbedder{}
	a := &embedderAdapter{inner: fb}

	res, err := a.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.calls != 1 {
		t.Errorf("expected one native batch call, got %d", fb.calls)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 5 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestEmbedderAdapter_BatchFallsBackPerText(t *testing.T) {
	a := &embedderAdapter{inner: fakeEmbedder{}}

	res, err := a.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Errorf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected summed tokens 6, got %d", res.TotalTokens)
	}
}

func TestNoopEmbedder_Errors(t *testing.T) {
	var e domain.Embedder = noopEmbedder{}
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error from unconfigured embedder")
	}
}
