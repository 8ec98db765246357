package embedding

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/homez-ai/searchd/internal/domain"
)

// OffloadEmbedder runs inner embedder calls on a bounded worker pool instead
// of the caller's goroutine. Request handlers stay responsive while provider
// calls queue behind a fixed number of workers; the caller still blocks until
// its own result is ready or its context is done.
type OffloadEmbedder struct {
	inner      domain.Embedder
	pool       *ants.Pool
	queueDepth prometheus.Gauge
}

// NewOffloadEmbedder creates the offload decorator with workers goroutines.
// queueDepth may be nil.
func NewOffloadEmbedder(inner domain.Embedder, workers int, queueDepth prometheus.Gauge) (*OffloadEmbedder, error) {
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	return &OffloadEmbedder{inner: inner, pool: pool, queueDepth: queueDepth}, nil
}

// Embed submits the call to the pool and waits for the result.
func (o *OffloadEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	type outcome struct {
		res domain.EmbeddingResult
		err error
	}

	done := make(chan outcome, 1)

	o.trackQueue(1)
	err := o.pool.Submit(func() {
		defer o.trackQueue(-1)
		res, err := o.inner.Embed(ctx, text)
		done <- outcome{res: res, err: err}
	})
	if err != nil {
		o.trackQueue(-1)
		return domain.EmbeddingResult{}, fmt.Errorf("submit embedding task: %w", err)
	}

	select {
	case <-ctx.Done():
		// The worker keeps running; it observes ctx itself and exits promptly.
		return domain.EmbeddingResult{}, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return domain.EmbeddingResult{}, out.err
		}
		return out.res, nil
	}
}

// BatchEmbed submits the whole batch as one task. The batch already amortizes
// the provider round-trip; splitting it across workers would only reorder it.
func (o *OffloadEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	type outcome struct {
		res domain.BatchEmbeddingResult
		err error
	}

	done := make(chan outcome, 1)

	o.trackQueue(1)
	err := o.pool.Submit(func() {
		defer o.trackQueue(-1)
		res, err := o.batchInner(ctx, texts)
		done <- outcome{res: res, err: err}
	})
	if err != nil {
		o.trackQueue(-1)
		return domain.BatchEmbeddingResult{}, fmt.Errorf("submit batch embedding task: %w", err)
	}

	select {
	case <-ctx.Done():
		return domain.BatchEmbeddingResult{}, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return domain.BatchEmbeddingResult{}, out.err
		}
		return out.res, nil
	}
}

// Release shuts the pool down. Pending tasks are discarded.
func (o *OffloadEmbedder) Release() {
	o.pool.Release()
}

func (o *OffloadEmbedder) batchInner(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := o.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, o.inner, texts)
}

func (o *OffloadEmbedder) trackQueue(delta float64) {
	if o.queueDepth != nil {
		o.queueDepth.Add(delta)
	}
}
