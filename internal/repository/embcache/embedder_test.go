package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

func TestEmbed_CacheMiss_CallsInnerAndStores(t *testing.T) {
	cache, kv, inner := newTestCache(t)

	innerCalled := false
	inner.embedFn = func(_ context.Context, text string) (domain.EmbeddingResult, error) {
		innerCalled = true
		if text != "hello" {
			t.Errorf("unexpected text %q", text)
		}
		return domain.EmbeddingResult{Embedding: []float32{0.5, 0.25}, TotalTokens: 3}, nil
	}

	var storedKey string
	var storedVal []byte
	kv.setFn = func(_ context.Context, key string, value []byte) error {
		storedKey = key
		storedVal = value
		return nil
	}

	res, err := cache.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !innerCalled {
		t.Fatal("inner embedder was not called on miss")
	}
	if res.TotalTokens != 3 {
		t.Errorf("expected 3 tokens, got %d", res.TotalTokens)
	}
	if !strings.HasPrefix(storedKey, "catalog:emb_cache:") {
		t.Errorf("unexpected cache key %q", storedKey)
	}
	if len(storedVal) != 8 {
		t.Errorf("expected 8 cached bytes, got %d", len(storedVal))
	}
}

func TestEmbed_CacheHit_SkipsInner(t *testing.T) {
	cache, kv, inner := newTestCache(t)

	kv.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{0.5, 0.25}), nil
	}
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		t.Fatal("inner embedder must not be called on hit")
		return domain.EmbeddingResult{}, nil
	}

	res, err := cache.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 || res.Embedding[0] != 0.5 {
		t.Errorf("unexpected embedding: %v", res.Embedding)
	}
	if res.TotalTokens != 0 {
		t.Errorf("cache hit must report zero tokens, got %d", res.TotalTokens)
	}
}

func TestEmbed_CorruptCacheEntry_FallsThrough(t *testing.T) {
	cache, kv, inner := newTestCache(t)

	kv.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	innerCalled := false
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		innerCalled = true
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	}

	if _, err := cache.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !innerCalled {
		t.Error("corrupt cache entry should fall through to the inner embedder")
	}
}

func TestEmbed_InnerError(t *testing.T) {
	cache, _, inner := newTestCache(t)

	wantErr := errors.New("provider down")
	inner.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, wantErr
	}

	_, err := cache.Embed(context.Background(), "hello")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestEmbed_SetFailureDoesNotFailRequest(t *testing.T) {
	cache, kv, _ := newTestCache(t)

	kv.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("store unavailable")
	}

	if _, err := cache.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("cache write failure must not fail the request: %v", err)
	}
}

func TestBatchEmbed_MixedHitsAndMisses(t *testing.T) {
	cache, kv, inner := newTestCache(t)

	cached := map[string][]byte{
		cacheKey("a"): vectorToCacheBytes([]float32{1, 1}),
		cacheKey("c"): vectorToCacheBytes([]float32{3, 3}),
	}
	kv.getFn = func(_ context.Context, key string) ([]byte, error) {
		if data, ok := cached[key]; ok {
			return data, nil
		}
		return nil, db.ErrKeyNotFound
	}

	inner.batchEmbedFn = func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
		if len(texts) != 1 || texts[0] != "b" {
			t.Errorf("expected only the miss, got %v", texts)
		}
		return domain.BatchEmbeddingResult{
			Embeddings:  [][]float32{{2, 2}},
			TotalTokens: 7,
		}, nil
	}

	res, err := cache.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.Embeddings[0][0] != 1 || res.Embeddings[1][0] != 2 || res.Embeddings[2][0] != 3 {
		t.Errorf("order not preserved: %v", res.Embeddings)
	}
	if res.TotalTokens != 7 {
		t.Errorf("expected tokens only for misses, got %d", res.TotalTokens)
	}
}

func TestBatchEmbed_AllHits_SkipsInner(t *testing.T) {
	cache, kv, inner := newTestCache(t)

	kv.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes([]float32{1}), nil
	}
	inner.batchEmbedFn = func(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
		t.Fatal("inner embedder must not be called when everything is cached")
		return domain.BatchEmbeddingResult{}, nil
	}

	res, err := cache.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
}

func TestBatchEmbed_CountMismatch(t *testing.T) {
	cache, _, inner := newTestCache(t)

	inner.batchEmbedFn = func(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbeddingResult{Embeddings: [][]float32{{1}}}, nil
	}

	_, err := cache.BatchEmbed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error on embedding count mismatch")
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	if cacheKey("same text") != cacheKey("same text") {
		t.Error("cache key must be deterministic")
	}
	if cacheKey("text a") == cacheKey("text b") {
		t.Error("different texts must not collide")
	}
}
