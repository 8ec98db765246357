package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

// mockKV implements the consumer store interface for tests.
type mockKV struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKV) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

// mockEmbedder implements domain.Embedder with function fields.
type mockEmbedder struct {
	embedFn      func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 2, 3}, TotalTokens: 5}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.batchEmbedFn != nil {
		return m.batchEmbedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 5 * len(texts)}, nil
}

func newTestCache(t *testing.T) (*CachedEmbedder, *mockKV, *mockEmbedder) {
	t.Helper()
	kv := &mockKV{}
	inner := &mockEmbedder{}
	return New(inner, kv, nil, zap.NewNop()), kv, inner
}
