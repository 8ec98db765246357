package searchd

import (
	"context"
	"fmt"
	"time"

	"github.com/homez-ai/searchd/internal/domain"
)

// ProductService manages catalog products.
type ProductService struct {
	ingest  ingestUseCase
	catalog catalogStore
	obs     *observer
}

// Upsert embeds and indexes one product.
func (s *ProductService) Upsert(ctx context.Context, p Product) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_upsert", start, err) }()

	if err = s.ingest.IngestProduct(ctx, toInternalProduct(p)); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// UpsertBatch indexes products with a single embedding call.
// One invalid product fails the whole batch before anything is written.
func (s *ProductService) UpsertBatch(ctx context.Context, products []Product) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_batch_upsert", start, err) }()

	items := make([]*domain.Product, len(products))
	for i := range products {
		items[i] = toInternalProduct(products[i])
	}
	if err = s.ingest.IngestProducts(ctx, items); err != nil {
		return fmt.Errorf("batch upsert products: %w", err)
	}
	return nil
}

// Get retrieves a product by ID.
func (s *ProductService) Get(ctx context.Context, id string) (p Product, err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_get", start, err) }()

	dp, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return fromInternalProduct(dp), nil
}

// Delete removes a product and its vector.
func (s *ProductService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("product_delete", start, err) }()

	if err = s.catalog.Delete(ctx, domain.TypeProduct, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// ServiceService manages catalog services.
type ServiceService struct {
	ingest  ingestUseCase
	catalog catalogStore
	obs     *observer
}

// Upsert embeds and indexes one service.
func (s *ServiceService) Upsert(ctx context.Context, sv Service) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("service_upsert", start, err) }()

	if err = s.ingest.IngestService(ctx, toInternalService(sv)); err != nil {
		return fmt.Errorf("upsert service: %w", err)
	}
	return nil
}

// UpsertBatch indexes services with a single embedding call.
func (s *ServiceService) UpsertBatch(ctx context.Context, services []Service) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("service_batch_upsert", start, err) }()

	items := make([]*domain.Service, len(services))
	for i := range services {
		items[i] = toInternalService(services[i])
	}
	if err = s.ingest.IngestServices(ctx, items); err != nil {
		return fmt.Errorf("batch upsert services: %w", err)
	}
	return nil
}

// Get retrieves a service by ID.
func (s *ServiceService) Get(ctx context.Context, id string) (sv Service, err error) {
	start := time.Now()
	defer func() { s.obs.observe("service_get", start, err) }()

	ds, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return Service{}, fmt.Errorf("get service: %w", err)
	}
	return fromInternalService(ds), nil
}

// Delete removes a service and its vector.
func (s *ServiceService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("service_delete", start, err) }()

	if err = s.catalog.Delete(ctx, domain.TypeService, id); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}
