package embedding

import (
	"context"

	"github.com/homez-ai/searchd/internal/domain"
)

// mockEmbedder implements domain.Embedder with function fields.
type mockEmbedder struct {
	embedFn      func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 2}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.batchEmbedFn != nil {
		return m.batchEmbedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 2 * len(texts)}, nil
}

// plainEmbedder implements only domain.Embedder (no batch path).
type plainEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (p *plainEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.embedFn != nil {
		return p.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}
