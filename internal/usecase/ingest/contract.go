package ingest

import (
	"context"
	"time"

	"github.com/homez-ai/searchd/internal/domain"
	"github.com/homez-ai/searchd/internal/repository/queue"
)

// Writer defines the storage contract for entity ingestion.
type Writer interface {
	UpsertProduct(ctx context.Context, p *domain.Product, vector []float32) error
	UpsertService(ctx context.Context, s *domain.Service, vector []float32) error
	Delete(ctx context.Context, typ domain.EntityType, id string) error
}

// Embedder vectorizes searchable text, one text or a whole batch.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// TaskQueue defines the durable queue contract for asynchronous ingestion.
type TaskQueue interface {
	EnsureGroups(ctx context.Context) error
	EnqueueUpsert(ctx context.Context, typ domain.EntityType, entityID string, payload []byte) (string, error)
	EnqueueDelete(ctx context.Context, typ domain.EntityType, entityID string) (string, error)
	Read(ctx context.Context, consumer string, count int, block time.Duration) ([]queue.Task, error)
	Ack(ctx context.Context, task queue.Task) error
}
