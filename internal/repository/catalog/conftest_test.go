package catalog

import (
	"context"
	"testing"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

const testDims = 4

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
	existsFn  func(ctx context.Context, key string) (bool, error)
	txWriteFn func(ctx context.Context, ops []db.TxOp) error
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) TxWrite(ctx context.Context, ops []db.TxOp) error {
	if m.txWriteFn != nil {
		return m.txWriteFn(ctx, ops)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testDims), ms
}

func testProduct(t *testing.T) *domain.Product {
	t.Helper()
	return &domain.Product{
		ID:           "p1",
		Name:         "Trail Backpack",
		Description:  "40L hiking backpack",
		BasePrice:    89.90,
		CategoryName: "Outdoor",
		Tags:         []string{"hiking", "travel"},
	}
}

func testService(t *testing.T) *domain.Service {
	t.Helper()
	return &domain.Service{
		ID:           "s1",
		Name:         "Deep Cleaning",
		Description:  "Full apartment cleaning",
		BasePrice:    120,
		CategoryName: "Home",
	}
}

func testVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return vec
}
