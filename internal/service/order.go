package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// PlaceOrder turns the cart into an order. An empty cart is refused without
// calling the server. On success the cart and history entries of the session
// are invalidated. EstimatedWaitTime in the response is for display only.
func (s *OrderSession) PlaceOrder(ctx context.Context, instructions string) (*models.PlaceOrderResponse, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}

	cart, err := s.cart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	var resp models.PlaceOrderResponse
	err = s.serial.Do(ctx, "place", func() error {
		return s.api.Post(ctx, client.PlaceOrderPath(s.id),
			models.PlaceOrderRequest{SpecialInstructions: instructions}, &resp)
	})
	if err != nil {
		s.logger.WithError(err).Warn("Order placement failed")
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.cache.Invalidate(s.key(ResourceCart))
	s.cache.Invalidate(s.key(ResourceHistory))
	s.logger.WithFields(log.Fields{
		"orderNumber": resp.Order.OrderNumber,
		"total":       resp.Order.TotalAmount,
	}).Info("Order placed")
	return &resp, nil
}

// History returns the orders of the session, most recent first
func (s *OrderSession) History(ctx context.Context) (*models.OrderHistoryResponse, error) {
	return s.history(ctx, false)
}

// RefreshHistory refetches the order history regardless of freshness. It is
// always available and safe to repeat.
func (s *OrderSession) RefreshHistory(ctx context.Context) (*models.OrderHistoryResponse, error) {
	return s.history(ctx, true)
}

func (s *OrderSession) history(ctx context.Context, force bool) (*models.OrderHistoryResponse, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context) (*models.OrderHistoryResponse, error) {
		var resp models.OrderHistoryResponse
		if err := s.api.Get(ctx, client.HistoryPath(s.id), nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	var h *models.OrderHistoryResponse
	if force {
		h, err = cache.Reload(ctx, s.cache, s.key(ResourceHistory), s.policies.History, fetch)
	} else {
		h, err = cache.Get(ctx, s.cache, s.key(ResourceHistory), s.policies.History, fetch)
	}
	if err != nil {
		return nil, fmt.Errorf("get order history: %w", err)
	}
	return h, nil
}

// ActiveOrder returns the most recent order still in the kitchen
func (s *OrderSession) ActiveOrder(ctx context.Context) (models.Order, bool, error) {
	h, err := s.History(ctx)
	if err != nil {
		return models.Order{}, false, err
	}
	o, ok := models.ActiveOrder(h.Orders)
	return o, ok, nil
}

// InvalidateHistory marks the history stale, as when a push update arrives
func (s *OrderSession) InvalidateHistory() {
	s.cache.Invalidate(s.key(ResourceHistory))
}
