package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/domain"
)

// BreakerSettings tunes the circuit breaker around the embedding provider.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	FailureRate float64
}

// BreakerEmbedder wraps the provider with a circuit breaker. After a sustained
// failure rate the circuit opens and calls fail fast with domain.ErrEmbedding,
// giving the provider room to recover instead of piling on.
type BreakerEmbedder struct {
	inner domain.Embedder
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerEmbedder creates the circuit breaker decorator.
func NewBreakerEmbedder(inner domain.Embedder, s BreakerSettings, logger *zap.Logger) *BreakerEmbedder {
	settings := gobreaker.Settings{
		Name:        "embedding-provider",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= s.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Embedding circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerEmbedder{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Embed runs the inner call through the breaker.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.Embed(ctx, text)
	})
	if err != nil {
		return domain.EmbeddingResult{}, wrapBreakerErr(err)
	}
	return out.(domain.EmbeddingResult), nil
}

// BatchEmbed runs the inner batch call through the breaker.
func (b *BreakerEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out, err := b.cb.Execute(func() (any, error) {
		if be, ok := b.inner.(domain.BatchEmbedder); ok {
			return be.BatchEmbed(ctx, texts)
		}
		return domain.BatchFallback(ctx, b.inner, texts)
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, wrapBreakerErr(err)
	}
	return out.(domain.BatchEmbeddingResult), nil
}

// wrapBreakerErr maps breaker rejections to the provider error class so the
// transport layer returns 502 for both a failing and an unreachable provider.
func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("embedding provider circuit open: %w", domain.ErrEmbedding)
	}
	return err
}
