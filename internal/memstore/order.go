package memstore

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// usableLocked returns a session that accepts cart and order writes.
// Callers hold s.mu.
func (s *Store) usableLocked(sessionID string) (*models.OrderSession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, notFound("session", sessionID)
	}
	if sess.Status == models.SessionStatusActive && !s.now().Before(sess.ExpiresAt) {
		sess.Status = models.SessionStatusExpired
	}
	if !sess.Usable(s.now()) {
		return nil, newError(http.StatusGone, "SESSION_EXPIRED", "session %s is %s", sessionID, sess.Status)
	}
	return sess, nil
}

func (s *Store) cartLocked(sessionID string) *models.Cart {
	c, ok := s.carts[sessionID]
	if !ok {
		c = &models.Cart{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Items:     []models.CartItem{},
			UpdatedAt: s.now(),
		}
		s.carts[sessionID] = c
	}
	return c
}

func cloneCart(c *models.Cart) models.Cart {
	out := *c
	out.Items = append([]models.CartItem(nil), c.Items...)
	if out.Items == nil {
		out.Items = []models.CartItem{}
	}
	return out
}

func cloneMenu(m *models.Menu) models.Menu {
	if m == nil {
		return models.Menu{Categories: []models.MenuCategory{}, Items: []models.MenuItem{}}
	}
	return models.Menu{
		Categories: append([]models.MenuCategory(nil), m.Categories...),
		Items:      append([]models.MenuItem(nil), m.Items...),
	}
}

// Session returns the bootstrap payload of a session. Expired sessions are
// still returned so the client can tell why it cannot order.
func (s *Store) Session(sessionID string) (*models.OrderSessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, notFound("session", sessionID)
	}
	if sess.Status == models.SessionStatusActive && !s.now().Before(sess.ExpiresAt) {
		sess.Status = models.SessionStatusExpired
	}
	return &models.OrderSessionResponse{
		Session: *sess,
		Menu:    cloneMenu(s.menus[sess.StoreID]),
		Cart:    cloneCart(s.cartLocked(sessionID)),
	}, nil
}

// Menu returns the menu of the session's store
func (s *Store) Menu(sessionID string) (*models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, notFound("session", sessionID)
	}
	m := cloneMenu(s.menus[sess.StoreID])
	return &m, nil
}

// Cart returns the session cart
func (s *Store) Cart(sessionID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, notFound("session", sessionID)
	}
	c := cloneCart(s.cartLocked(sessionID))
	return &c, nil
}

func checkQuantity(q int) error {
	if q < models.MinItemQuantity || q > models.MaxItemQuantity {
		return invalid("quantity must be between %d and %d", models.MinItemQuantity, models.MaxItemQuantity)
	}
	return nil
}

// AddToCart adds a menu item at its current price. Adding an item already in
// the cart raises that line's quantity.
func (s *Store) AddToCart(sessionID string, req models.AddToCartRequest) (*models.Cart, error) {
	if err := checkQuantity(req.Quantity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.usableLocked(sessionID)
	if err != nil {
		return nil, err
	}
	menu := s.menus[sess.StoreID]
	if menu == nil {
		return nil, notFound("menu item", req.MenuItemID)
	}
	item, ok := menu.Item(req.MenuItemID)
	if !ok {
		return nil, notFound("menu item", req.MenuItemID)
	}
	if !item.IsAvailable {
		return nil, newError(http.StatusConflict, "ITEM_UNAVAILABLE", "%s is not available", item.Name)
	}

	cart := s.cartLocked(sessionID)
	merged := false
	for i := range cart.Items {
		line := &cart.Items[i]
		if line.MenuItemID != req.MenuItemID || line.SpecialInstructions != req.SpecialInstructions {
			continue
		}
		if err := checkQuantity(line.Quantity + req.Quantity); err != nil {
			return nil, err
		}
		line.Quantity += req.Quantity
		merged = true
		break
	}
	if !merged {
		snapshot := item
		cart.Items = append(cart.Items, models.CartItem{
			ID:                  uuid.NewString(),
			MenuItemID:          item.ID,
			MenuItem:            &snapshot,
			Quantity:            req.Quantity,
			UnitPrice:           item.Price,
			SpecialInstructions: req.SpecialInstructions,
			AddedAt:             s.now(),
		})
	}
	cart.Recalculate()
	cart.UpdatedAt = s.now()

	c := cloneCart(cart)
	return &c, nil
}

// UpdateCartItem sets the quantity of a line
func (s *Store) UpdateCartItem(sessionID, itemID string, req models.UpdateCartItemRequest) (*models.Cart, error) {
	if err := checkQuantity(req.Quantity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.usableLocked(sessionID); err != nil {
		return nil, err
	}
	cart := s.cartLocked(sessionID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = req.Quantity
			if req.SpecialInstructions != "" {
				cart.Items[i].SpecialInstructions = req.SpecialInstructions
			}
			cart.Recalculate()
			cart.UpdatedAt = s.now()
			c := cloneCart(cart)
			return &c, nil
		}
	}
	return nil, notFound("cart item", itemID)
}

// RemoveCartItem deletes a line
func (s *Store) RemoveCartItem(sessionID, itemID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.usableLocked(sessionID); err != nil {
		return nil, err
	}
	cart := s.cartLocked(sessionID)
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.Recalculate()
			cart.UpdatedAt = s.now()
			c := cloneCart(cart)
			return &c, nil
		}
	}
	return nil, notFound("cart item", itemID)
}

// ClearCart empties the cart. Clearing an empty cart succeeds.
func (s *Store) ClearCart(sessionID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.usableLocked(sessionID); err != nil {
		return nil, err
	}
	cart := s.cartLocked(sessionID)
	cart.Items = []models.CartItem{}
	cart.Recalculate()
	cart.UpdatedAt = s.now()
	c := cloneCart(cart)
	return &c, nil
}

// PlaceOrder snapshots the cart into a pending order and empties the cart
func (s *Store) PlaceOrder(sessionID string, req models.PlaceOrderRequest) (*models.PlaceOrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.usableLocked(sessionID); err != nil {
		return nil, err
	}
	cart := s.cartLocked(sessionID)
	if cart.IsEmpty() {
		return nil, invalid("cart is empty")
	}

	now := s.now()
	s.orderSeq++
	order := &models.Order{
		ID:                  uuid.NewString(),
		SessionID:           sessionID,
		OrderNumber:         fmt.Sprintf("%s-%04d", now.Format("20060102"), s.orderSeq),
		Status:              models.OrderStatusPending,
		TotalAmount:         cart.TotalAmount,
		SpecialInstructions: req.SpecialInstructions,
		PlacedAt:            now,
	}
	for _, line := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:                  uuid.NewString(),
			OrderID:             order.ID,
			MenuItemID:          line.MenuItemID,
			MenuItem:            line.MenuItem,
			Quantity:            line.Quantity,
			UnitPrice:           line.UnitPrice,
			TotalPrice:          line.TotalPrice,
			SpecialInstructions: line.SpecialInstructions,
		})
	}
	wait := estimateWait(cart.TotalItems)
	ready := now.Add(time.Duration(wait) * time.Minute)
	order.EstimatedReadyAt = &ready

	s.orders[sessionID] = append(s.orders[sessionID], order)
	s.byID[order.ID] = order

	cart.Items = []models.CartItem{}
	cart.Recalculate()
	cart.UpdatedAt = now

	return &models.PlaceOrderResponse{Order: *order, EstimatedWaitTime: wait}, nil
}

// estimateWait is ten minutes plus two per item, at most an hour
func estimateWait(items int) int {
	return min(60, 10+2*items)
}

// History returns the orders of a session, most recent first
func (s *Store) History(sessionID string) (*models.OrderHistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, notFound("session", sessionID)
	}
	placed := s.orders[sessionID]
	out := make([]models.Order, 0, len(placed))
	for i := len(placed) - 1; i >= 0; i-- {
		out = append(out, *placed[i])
	}
	return &models.OrderHistoryResponse{Orders: out, TotalCount: len(out)}, nil
}

// AdvanceOrder moves an order to status. Orders only move forward; any
// unfinished order can be cancelled.
func (s *Store) AdvanceOrder(orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[orderID]
	if !ok {
		return nil, notFound("order", orderID)
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, newError(http.StatusConflict, "INVALID_TRANSITION",
			"order %s cannot move from %s to %s", o.OrderNumber, o.Status, status)
	}
	o.Status = status
	if status.IsTerminal() {
		now := s.now()
		o.CompletedAt = &now
	}
	out := *o
	return &out, nil
}
