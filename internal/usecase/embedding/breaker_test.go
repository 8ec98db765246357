package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/domain"
)

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		FailureRate: 0.5,
	}
}

func TestBreaker_PassesThroughWhenClosed(t *testing.T) {
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: []float32{0.3}, TotalTokens: 2}, nil
		},
	}

	emb := NewBreakerEmbedder(inner, testBreakerSettings(), zap.NewNop())

	res, err := emb.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestBreaker_OpensAfterSustainedFailures(t *testing.T) {
	providerErr := errors.New("provider down")
	var innerCalls int
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			innerCalls++
			return domain.EmbeddingResult{}, providerErr
		},
	}

	emb := NewBreakerEmbedder(inner, testBreakerSettings(), zap.NewNop())

	// Trip the breaker: ReadyToTrip requires >= 3 requests at >= 50% failures.
	for n := 0; n < 3; n++ {
		if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, providerErr) {
			t.Fatalf("expected provider error, got %v", err)
		}
	}

	callsBeforeOpen := innerCalls

	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding once open, got %v", err)
	}
	if innerCalls != callsBeforeOpen {
		t.Error("open circuit must fail fast without calling the provider")
	}
}

func TestBreaker_BatchEmbed_SharesCircuit(t *testing.T) {
	providerErr := errors.New("provider down")
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, providerErr
		},
	}

	emb := NewBreakerEmbedder(inner, testBreakerSettings(), zap.NewNop())

	for n := 0; n < 3; n++ {
		_, _ = emb.Embed(context.Background(), "x")
	}

	_, err := emb.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Errorf("batch path must share the single-embed circuit, got %v", err)
	}
}

func TestBreaker_BatchEmbed_Success(t *testing.T) {
	inner := &mockEmbedder{}

	emb := NewBreakerEmbedder(inner, testBreakerSettings(), zap.NewNop())

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
}
