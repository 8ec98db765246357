package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/domain"
	"github.com/homez-ai/searchd/internal/metrics"
)

// Outcome reports how a submission was handled.
type Outcome struct {
	// Queued is true when the entity was accepted onto the durable queue
	// rather than indexed synchronously.
	Queued bool
	// Token is the queue message ID for queued submissions, empty otherwise.
	Token string
}

// Service orchestrates entity ingestion: validate, embed the searchable text,
// write entity and vector atomically. With a queue attached, submissions are
// enqueued instead and a consumer applies them.
type Service struct {
	writer Writer
	embed  Embedder
	queue  TaskQueue // nil means synchronous-only
	logger *zap.Logger
}

// New creates an ingestion service. queue may be nil to disable the
// asynchronous path.
func New(writer Writer, embed Embedder, queue TaskQueue, logger *zap.Logger) *Service {
	return &Service{writer: writer, embed: embed, queue: queue, logger: logger}
}

// SubmitProduct validates the product and either enqueues it or indexes it
// synchronously, depending on whether a queue is attached.
func (s *Service) SubmitProduct(ctx context.Context, p *domain.Product) (Outcome, error) {
	if err := p.Validate(); err != nil {
		return Outcome{}, err
	}

	if s.queue == nil {
		if err := s.IngestProduct(ctx, p); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, nil
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal product %s: %w", p.ID, err)
	}
	token, err := s.queue.EnqueueUpsert(ctx, domain.TypeProduct, p.ID, payload)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "queue", "error").Inc()
		return Outcome{}, err
	}
	metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "queue", "accepted").Inc()
	return Outcome{Queued: true, Token: token}, nil
}

// SubmitService is the service-type counterpart of SubmitProduct.
func (s *Service) SubmitService(ctx context.Context, sv *domain.Service) (Outcome, error) {
	if err := sv.Validate(); err != nil {
		return Outcome{}, err
	}

	if s.queue == nil {
		if err := s.IngestService(ctx, sv); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, nil
	}

	payload, err := json.Marshal(sv)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal service %s: %w", sv.ID, err)
	}
	token, err := s.queue.EnqueueUpsert(ctx, domain.TypeService, sv.ID, payload)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "queue", "error").Inc()
		return Outcome{}, err
	}
	metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "queue", "accepted").Inc()
	return Outcome{Queued: true, Token: token}, nil
}

// SubmitDelete removes an entity, via the queue when attached.
func (s *Service) SubmitDelete(ctx context.Context, typ domain.EntityType, id string) (Outcome, error) {
	if s.queue == nil {
		if err := s.writer.Delete(ctx, typ, id); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, nil
	}
	token, err := s.queue.EnqueueDelete(ctx, typ, id)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Queued: true, Token: token}, nil
}

// IngestProduct embeds and indexes one product synchronously.
func (s *Service) IngestProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Normalize()

	embResult, err := s.embed.Embed(ctx, p.SearchableText())
	if err != nil {
		metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "sync", "error").Inc()
		return fmt.Errorf("embed product %s: %w", p.ID, err)
	}

	if err := s.writer.UpsertProduct(ctx, p, embResult.Embedding); err != nil {
		metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "sync", "error").Inc()
		return err
	}

	metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "sync", "ok").Inc()
	s.logger.Debug("Product indexed",
		zap.String("id", p.ID),
		zap.String("category", p.Category()),
		zap.Int("tokens", embResult.TotalTokens),
	)
	return nil
}

// IngestService embeds and indexes one service synchronously.
func (s *Service) IngestService(ctx context.Context, sv *domain.Service) error {
	if err := sv.Validate(); err != nil {
		return err
	}
	sv.Normalize()

	embResult, err := s.embed.Embed(ctx, sv.SearchableText())
	if err != nil {
		metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "sync", "error").Inc()
		return fmt.Errorf("embed service %s: %w", sv.ID, err)
	}

	if err := s.writer.UpsertService(ctx, sv, embResult.Embedding); err != nil {
		metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "sync", "error").Inc()
		return err
	}

	metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "sync", "ok").Inc()
	s.logger.Debug("Service indexed",
		zap.String("id", sv.ID),
		zap.String("category", sv.Category()),
		zap.Int("tokens", embResult.TotalTokens),
	)
	return nil
}

// IngestProducts indexes a batch with a single embedding call. One invalid
// entity fails the whole batch before anything is embedded or written.
func (s *Service) IngestProducts(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("product [%d]: %w", i, err)
		}
		p.Normalize()
		texts[i] = p.SearchableText()
	}

	batch, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("batch embed products: %w", err)
	}
	if len(batch.Embeddings) != len(products) {
		return fmt.Errorf("got %d embeddings for %d products: %w",
			len(batch.Embeddings), len(products), domain.ErrEmbedding)
	}

	for i, p := range products {
		if err := s.writer.UpsertProduct(ctx, p, batch.Embeddings[i]); err != nil {
			metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "sync", "error").Inc()
			return fmt.Errorf("upsert product [%d] %s: %w", i, p.ID, err)
		}
		metrics.IngestTotal.WithLabelValues(string(domain.TypeProduct), "sync", "ok").Inc()
	}
	return nil
}

// IngestServices is the service-type counterpart of IngestProducts.
func (s *Service) IngestServices(ctx context.Context, services []*domain.Service) error {
	if len(services) == 0 {
		return nil
	}

	texts := make([]string, len(services))
	for i, sv := range services {
		if err := sv.Validate(); err != nil {
			return fmt.Errorf("service [%d]: %w", i, err)
		}
		sv.Normalize()
		texts[i] = sv.SearchableText()
	}

	batch, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("batch embed services: %w", err)
	}
	if len(batch.Embeddings) != len(services) {
		return fmt.Errorf("got %d embeddings for %d services: %w",
			len(batch.Embeddings), len(services), domain.ErrEmbedding)
	}

	for i, sv := range services {
		if err := s.writer.UpsertService(ctx, sv, batch.Embeddings[i]); err != nil {
			metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "sync", "error").Inc()
			return fmt.Errorf("upsert service [%d] %s: %w", i, sv.ID, err)
		}
		metrics.IngestTotal.WithLabelValues(string(domain.TypeService), "sync", "ok").Inc()
	}
	return nil
}
