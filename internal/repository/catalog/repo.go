package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

// store is the consumer interface for catalog rows (ISP).
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	TxWrite(ctx context.Context, ops []db.TxOp) error
}

// Repo persists catalog entities as JSON documents paired with vector hashes.
// Entity row and vector row are always written in one transaction, so a
// searchable vector never outlives (or precedes) its entity.
type Repo struct {
	store store
	dims  int
}

// New creates a catalog repository. dims is the expected embedding dimension;
// writes with a different vector length are rejected.
func New(s store, dims int) *Repo {
	return &Repo{store: s, dims: dims}
}

// UpsertProduct writes the product row and its vector row atomically.
func (r *Repo) UpsertProduct(ctx context.Context, p *domain.Product, vector []float32) error {
	if err := r.checkDim(vector); err != nil {
		return err
	}
	data, err := marshalProduct(p)
	if err != nil {
		return err
	}
	ops := []db.TxOp{
		db.TxJSONSet(entityKey(domain.TypeProduct, p.ID), "$", data),
		db.TxHSet(vecKey(domain.TypeProduct, p.ID), vectorFields(p.ID, p.Category(), vector)),
	}
	if err := r.store.TxWrite(ctx, ops); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// UpsertService writes the service row and its vector row atomically.
func (r *Repo) UpsertService(ctx context.Context, s *domain.Service, vector []float32) error {
	if err := r.checkDim(vector); err != nil {
		return err
	}
	data, err := marshalService(s)
	if err != nil {
		return err
	}
	ops := []db.TxOp{
		db.TxJSONSet(entityKey(domain.TypeService, s.ID), "$", data),
		db.TxHSet(vecKey(domain.TypeService, s.ID), vectorFields(s.ID, s.Category(), vector)),
	}
	if err := r.store.TxWrite(ctx, ops); err != nil {
		return fmt.Errorf("upsert service %s: %w", s.ID, err)
	}
	return nil
}

// GetProduct returns a product row by ID.
func (r *Repo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := r.getRow(ctx, domain.TypeProduct, id)
	if err != nil {
		return nil, err
	}
	return decodeProduct(raw)
}

// GetService returns a service row by ID.
func (r *Repo) GetService(ctx context.Context, id string) (*domain.Service, error) {
	raw, err := r.getRow(ctx, domain.TypeService, id)
	if err != nil {
		return nil, err
	}
	return decodeService(raw)
}

// Exists checks whether an entity row is present.
func (r *Repo) Exists(ctx context.Context, typ domain.EntityType, id string) (bool, error) {
	exists, err := r.store.Exists(ctx, entityKey(typ, id))
	if err != nil {
		return false, fmt.Errorf("check exists %s/%s: %w", typ, id, err)
	}
	return exists, nil
}

// Delete removes the entity row and its vector row atomically.
func (r *Repo) Delete(ctx context.Context, typ domain.EntityType, id string) error {
	exists, err := r.Exists(ctx, typ, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	ops := []db.TxOp{
		db.TxDel(entityKey(typ, id)),
		db.TxDel(vecKey(typ, id)),
	}
	if err := r.store.TxWrite(ctx, ops); err != nil {
		return fmt.Errorf("delete %s/%s: %w", typ, id, err)
	}
	return nil
}

func (r *Repo) getRow(ctx context.Context, typ domain.EntityType, id string) ([]byte, error) {
	key := entityKey(typ, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}
	return raw, nil
}

func (r *Repo) checkDim(vector []float32) error {
	if len(vector) != r.dims {
		return fmt.Errorf("vector has %d dimensions, index expects %d: %w",
			len(vector), r.dims, domain.ErrDimensionMismatch)
	}
	return nil
}

func entityKey(typ domain.EntityType, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, typ, id)
}

func vecKey(typ domain.EntityType, id string) string {
	return fmt.Sprintf("%svec:%s:%s", domain.KeyPrefix, typ, id)
}
