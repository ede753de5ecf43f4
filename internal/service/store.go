package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// StoreService manages stores from the admin console
type StoreService struct {
	backOffice
}

// NewStoreService creates a new store service
func NewStoreService(api API, c *cache.Cache, p Policies, logger log.FieldLogger) *StoreService {
	return &StoreService{newBackOffice(api, c, p, logger)}
}

// List returns a page of stores
func (s *StoreService) List(ctx context.Context, params models.ListParams) (*models.StoresListResponse, error) {
	resp, err := cache.Get(ctx, s.cache, listKey(ResourceStores, params), s.policies.Admin,
		getter[models.StoresListResponse](s.api, client.AdminStoresPath, client.ListQuery(params)))
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return resp, nil
}

// Get returns a store by ID
func (s *StoreService) Get(ctx context.Context, id string) (*models.Store, error) {
	resp, err := cache.Get(ctx, s.cache, detailKey(ResourceStore, id), s.policies.Admin,
		getter[models.StoreResponse](s.api, client.StorePath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("get store %s: %w", id, err)
	}
	return &resp.Store, nil
}

// Create creates a new store
func (s *StoreService) Create(ctx context.Context, req models.CreateStoreRequest) (*models.Store, error) {
	var resp models.StoreResponse
	if err := s.api.Post(ctx, client.AdminStoresPath, req, &resp); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	s.stored(&resp)
	return &resp.Store, nil
}

// Update applies a partial update to a store
func (s *StoreService) Update(ctx context.Context, id string, req models.UpdateStoreRequest) (*models.Store, error) {
	var resp models.StoreResponse
	if err := s.api.Put(ctx, client.StorePath(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update store %s: %w", id, err)
	}
	s.stored(&resp)
	return &resp.Store, nil
}

// UpdateStatus activates or deactivates a store
func (s *StoreService) UpdateStatus(ctx context.Context, id string, active bool) (*models.Store, error) {
	var resp models.StoreResponse
	if err := s.api.Patch(ctx, client.StoreStatusPath(id), models.StatusRequest{IsActive: active}, &resp); err != nil {
		return nil, fmt.Errorf("update store %s status: %w", id, err)
	}
	s.stored(&resp)
	return &resp.Store, nil
}

// Delete deletes a store
func (s *StoreService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, client.StorePath(id), nil); err != nil {
		return fmt.Errorf("delete store %s: %w", id, err)
	}
	s.cache.Remove(detailKey(ResourceStore, id))
	s.cache.Remove(detailKey(ResourceStats, id))
	s.cache.InvalidateResource(ResourceStores)
	s.logger.WithField("storeId", id).Info("Store deleted")
	return nil
}

// Stats returns a store's sales statistics
func (s *StoreService) Stats(ctx context.Context, id string) (*models.StoreStats, error) {
	resp, err := cache.Get(ctx, s.cache, detailKey(ResourceStats, id), s.policies.Stats,
		getter[models.StoreStatsResponse](s.api, client.StoreStatsPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("get store %s stats: %w", id, err)
	}
	return &resp.Stats, nil
}

// stored caches a store returned by a write and drops every cached page
func (s *StoreService) stored(resp *models.StoreResponse) {
	s.cache.Set(detailKey(ResourceStore, resp.Store.ID), resp)
	s.cache.InvalidateResource(ResourceStores)
}
