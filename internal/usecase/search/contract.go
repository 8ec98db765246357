package search

import (
	"context"

	"github.com/homez-ai/searchd/internal/domain"
	"github.com/homez-ai/searchd/internal/repository/vector"
)

// Retriever defines the KNN retrieval contract per entity type.
type Retriever interface {
	Search(ctx context.Context, typ domain.EntityType, vec []float32, k int) ([]vector.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
