package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// StaffOrderService lets store staff move orders through the kitchen flow
type StaffOrderService struct {
	api    API
	cache  *cache.Cache
	logger log.FieldLogger
}

func NewStaffOrderService(api API, c *cache.Cache, logger log.FieldLogger) *StaffOrderService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &StaffOrderService{api: api, cache: c, logger: logger}
}

// Advance sets the status of an order. The server only accepts forward moves
// and cancellation.
func (s *StaffOrderService) Advance(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("order %s: unknown status %q", orderID, status)
	}

	var order models.Order
	if err := s.api.Patch(ctx, client.OrderStatusPath(orderID), models.OrderStatusRequest{Status: status}, &order); err != nil {
		return nil, fmt.Errorf("advance order %s: %w", orderID, err)
	}

	s.cache.Invalidate(cache.Key{Resource: ResourceHistory, Scope: order.SessionID})
	s.logger.WithFields(log.Fields{
		"orderId": orderID,
		"status":  status,
	}).Info("Order status updated")
	return &order, nil
}
