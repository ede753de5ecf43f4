package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// ManagerService manages store manager accounts from the admin console
type ManagerService struct {
	backOffice
}

// NewManagerService creates a new manager service
func NewManagerService(api API, c *cache.Cache, p Policies, logger log.FieldLogger) *ManagerService {
	return &ManagerService{newBackOffice(api, c, p, logger)}
}

// List returns a page of managers
func (s *ManagerService) List(ctx context.Context, params models.ListParams) (*models.ManagersListResponse, error) {
	resp, err := cache.Get(ctx, s.cache, listKey(ResourceManagers, params), s.policies.Admin,
		getter[models.ManagersListResponse](s.api, client.AdminManagersPath, client.ListQuery(params)))
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	return resp, nil
}

// Get returns a manager by ID
func (s *ManagerService) Get(ctx context.Context, id string) (*models.Manager, error) {
	resp, err := cache.Get(ctx, s.cache, detailKey(ResourceManager, id), s.policies.Admin,
		getter[models.ManagerResponse](s.api, client.ManagerPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("get manager %s: %w", id, err)
	}
	return &resp.Manager, nil
}

// Create creates a new manager
func (s *ManagerService) Create(ctx context.Context, req models.CreateManagerRequest) (*models.Manager, error) {
	var resp models.ManagerResponse
	if err := s.api.Post(ctx, client.AdminManagersPath, req, &resp); err != nil {
		return nil, fmt.Errorf("create manager: %w", err)
	}
	s.stored(&resp)
	return &resp.Manager, nil
}

// Update applies a partial update to a manager
func (s *ManagerService) Update(ctx context.Context, id string, req models.UpdateManagerRequest) (*models.Manager, error) {
	var resp models.ManagerResponse
	if err := s.api.Put(ctx, client.ManagerPath(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update manager %s: %w", id, err)
	}
	s.stored(&resp)
	return &resp.Manager, nil
}

// UpdateStatus activates or deactivates a manager
func (s *ManagerService) UpdateStatus(ctx context.Context, id string, active bool) (*models.Manager, error) {
	var resp models.ManagerResponse
	if err := s.api.Patch(ctx, client.ManagerStatusPath(id), models.StatusRequest{IsActive: active}, &resp); err != nil {
		return nil, fmt.Errorf("update manager %s status: %w", id, err)
	}
	s.stored(&resp)
	return &resp.Manager, nil
}

// Delete deletes a manager
func (s *ManagerService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, client.ManagerPath(id), nil); err != nil {
		return fmt.Errorf("delete manager %s: %w", id, err)
	}
	s.cache.Remove(detailKey(ResourceManager, id))
	s.cache.InvalidateResource(ResourceManagers)
	return nil
}

func (s *ManagerService) stored(resp *models.ManagerResponse) {
	s.cache.Set(detailKey(ResourceManager, resp.Manager.ID), resp)
	s.cache.InvalidateResource(ResourceManagers)
}
