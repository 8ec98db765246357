package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

// store is the consumer interface for vector search (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config holds index build parameters.
type Config struct {
	Dimensions  int
	M           int
	EFConstruct int
}

// Hit is one raw KNN candidate before ranking: the entity id, its cosine
// similarity in [0,1], and the denormalized category stored next to the vector.
type Hit struct {
	ID         string
	Similarity float64
	Category   string
}

// Repo runs KNN retrieval over the per-type vector indexes.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndexes creates the HNSW index for every entity type that does not
// have one yet. Called once at startup; existing indexes are left untouched.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, typ := range domain.EntityTypes() {
		name := indexName(typ)

		exists, err := r.store.IndexExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", name, err)
		}
		if exists {
			continue
		}

		def, err := db.NewIndex(name).
			Prefix(vecPrefix(typ)).
			Tag("category").
			VectorHNSW("__vector", r.cfg.Dimensions, db.DistanceCosine, r.cfg.M, r.cfg.EFConstruct).
			Build()
		if err != nil {
			return fmt.Errorf("build index %s: %w", name, err)
		}

		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}

// Search returns up to k nearest candidates for one entity type, most
// similar first.
func (r *Repo) Search(ctx context.Context, typ domain.EntityType, vector []float32, k int) ([]Hit, error) {
	q := &db.KNNQuery{
		IndexName:    indexName(typ),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"entity", "category", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", typ, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := entry.Fields["entity"]
		if id == "" {
			id = trimVecPrefix(entry.Key, typ)
		}
		hits = append(hits, Hit{
			ID:         id,
			Similarity: entry.Score,
			Category:   entry.Fields["category"],
		})
	}
	return hits, nil
}

// IndexesReady reports whether every per-type index exists. Used by the
// health check to surface a store that lost its indexes.
func (r *Repo) IndexesReady(ctx context.Context) (bool, error) {
	for _, typ := range domain.EntityTypes() {
		exists, err := r.store.IndexExists(ctx, indexName(typ))
		if err != nil {
			return false, fmt.Errorf("check index %s: %w", typ, err)
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}

// Count returns the number of indexed vectors for an entity type.
func (r *Repo) Count(ctx context.Context, typ domain.EntityType) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(typ), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", typ, err)
	}
	return n, nil
}

func indexName(typ domain.EntityType) string {
	return fmt.Sprintf("%svec:%s:idx", domain.KeyPrefix, typ)
}

func vecPrefix(typ domain.EntityType) string {
	return fmt.Sprintf("%svec:%s:", domain.KeyPrefix, typ)
}

func trimVecPrefix(key string, typ domain.EntityType) string {
	prefix := vecPrefix(typ)
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
