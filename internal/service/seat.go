package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// SeatService manages the seats of the signed in manager's store
type SeatService struct {
	backOffice
}

// NewSeatService creates a new seat service
func NewSeatService(api API, c *cache.Cache, p Policies, logger log.FieldLogger) *SeatService {
	return &SeatService{newBackOffice(api, c, p, logger)}
}

// List returns a page of seats
func (s *SeatService) List(ctx context.Context, params models.ListParams) (*models.SeatsListResponse, error) {
	resp, err := cache.Get(ctx, s.cache, listKey(ResourceSeats, params), s.policies.Seats,
		getter[models.SeatsListResponse](s.api, client.StoreSeatsPath, client.ListQuery(params)))
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return resp, nil
}

// Get returns a seat by ID
func (s *SeatService) Get(ctx context.Context, id string) (*models.Seat, error) {
	resp, err := cache.Get(ctx, s.cache, detailKey(ResourceSeat, id), s.policies.Seats,
		getter[models.SeatResponse](s.api, client.SeatPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("get seat %s: %w", id, err)
	}
	return &resp.Seat, nil
}

// Create creates a new seat
func (s *SeatService) Create(ctx context.Context, req models.CreateSeatRequest) (*models.Seat, error) {
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("create seat: capacity must be positive, got %d", req.Capacity)
	}
	var resp models.SeatResponse
	if err := s.api.Post(ctx, client.StoreSeatsPath, req, &resp); err != nil {
		return nil, fmt.Errorf("create seat: %w", err)
	}
	s.stored(&resp)
	return &resp.Seat, nil
}

// Update applies a partial update to a seat
func (s *SeatService) Update(ctx context.Context, id string, req models.UpdateSeatRequest) (*models.Seat, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("update seat %s: unknown status %q", id, *req.Status)
	}
	var resp models.SeatResponse
	if err := s.api.Put(ctx, client.SeatPath(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update seat %s: %w", id, err)
	}
	s.stored(&resp)
	return &resp.Seat, nil
}

// UpdateStatus changes a seat's floor status
func (s *SeatService) UpdateStatus(ctx context.Context, id string, status models.SeatStatus) (*models.Seat, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("update seat %s: unknown status %q", id, status)
	}
	var resp models.SeatResponse
	if err := s.api.Patch(ctx, client.SeatStatusPath(id), models.SeatStatusRequest{Status: status}, &resp); err != nil {
		return nil, fmt.Errorf("update seat %s status: %w", id, err)
	}
	s.stored(&resp)
	return &resp.Seat, nil
}

// Delete deletes a seat and forgets its QR code
func (s *SeatService) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, client.SeatPath(id), nil); err != nil {
		return fmt.Errorf("delete seat %s: %w", id, err)
	}
	s.cache.Remove(detailKey(ResourceSeat, id))
	s.cache.Remove(detailKey(ResourceSeatQR, id))
	s.cache.InvalidateResource(ResourceSeats)
	return nil
}

// QR returns the QR code printed on a seat
func (s *SeatService) QR(ctx context.Context, id string) (*models.QRCodeResponse, error) {
	resp, err := cache.Get(ctx, s.cache, detailKey(ResourceSeatQR, id), s.policies.SeatQR,
		getter[models.QRCodeResponse](s.api, client.SeatQRPath(id), nil))
	if err != nil {
		return nil, fmt.Errorf("get seat %s qr: %w", id, err)
	}
	return resp, nil
}

// RegenerateQR issues a new QR code for a seat. The old code stops working.
func (s *SeatService) RegenerateQR(ctx context.Context, id string) (*models.QRCodeResponse, error) {
	var resp models.QRCodeResponse
	if err := s.api.Post(ctx, client.SeatQRRegeneratePath(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("regenerate seat %s qr: %w", id, err)
	}
	s.cache.Set(detailKey(ResourceSeatQR, id), &resp)
	s.cache.Invalidate(detailKey(ResourceSeat, id))
	s.cache.InvalidateResource(ResourceSeats)
	s.logger.WithField("seatId", id).Info("Seat QR code regenerated")
	return &resp, nil
}

func (s *SeatService) stored(resp *models.SeatResponse) {
	s.cache.Set(detailKey(ResourceSeat, resp.Seat.ID), resp)
	s.cache.InvalidateResource(ResourceSeats)
}
