package memstore

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func seeded(t *testing.T) (*Store, *clock) {
	t.Helper()
	// Tokens are verified against the wall clock, so start from it.
	c := &clock{t: time.Now().UTC().Truncate(time.Second)}
	s, err := NewSeeded(Options{Now: c.now, JWTSecret: "secret", PublicURL: "http://order.test/"})
	require.NoError(t, err)
	return s, c
}

func TestSeededSessions(t *testing.T) {
	s, _ := seeded(t)

	resp, err := s.Session(SeedSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, resp.Session.Status)
	assert.Equal(t, SeedStoreID, resp.Session.Store.ID)
	assert.Len(t, resp.Menu.Items, 4)
	assert.Empty(t, resp.Cart.Items)

	expired, err := s.Session(SeedExpiredSession)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusExpired, expired.Session.Status)

	_, err = s.Session("nope")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestCartRules(t *testing.T) {
	s, _ := seeded(t)

	cart, err := s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.EqualValues(t, 2000, cart.TotalAmount)

	cart, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "same item and note merge into one line")
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: 1, SpecialInstructions: "large"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M3", Quantity: 1})
	assert.Equal(t, http.StatusConflict, StatusOf(err))

	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M404", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: models.MaxItemQuantity})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err), "merged quantity is bounded too")

	line := cart.Items[0].ID
	cart, err = s.UpdateCartItem(SeedSessionID, line, models.UpdateCartItemRequest{Quantity: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2000, cart.TotalAmount)

	cart, err = s.RemoveCartItem(SeedSessionID, line)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	_, err = s.RemoveCartItem(SeedSessionID, line)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	cart, err = s.ClearCart(SeedSessionID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestPlaceOrderAndAdvance(t *testing.T) {
	s, c := seeded(t)

	_, err := s.PlaceOrder(SeedSessionID, models.PlaceOrderRequest{})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err), "empty cart")

	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: 2})
	require.NoError(t, err)
	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M2", Quantity: 1})
	require.NoError(t, err)

	placed, err := s.PlaceOrder(SeedSessionID, models.PlaceOrderRequest{SpecialInstructions: "quick"})
	require.NoError(t, err)
	assert.EqualValues(t, 3500, placed.Order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, placed.Order.Status)
	assert.Equal(t, c.t.Format("20060102")+"-0001", placed.Order.OrderNumber)
	assert.Equal(t, 16, placed.EstimatedWaitTime)
	assert.Len(t, placed.Order.Items, 2)

	cart, err := s.Cart(SeedSessionID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "placing empties the cart")

	c.advance(time.Minute)
	_, err = s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M4", Quantity: 1})
	require.NoError(t, err)
	second, err := s.PlaceOrder(SeedSessionID, models.PlaceOrderRequest{})
	require.NoError(t, err)

	h, err := s.History(SeedSessionID)
	require.NoError(t, err)
	require.Len(t, h.Orders, 2)
	assert.Equal(t, second.Order.ID, h.Orders[0].ID, "most recent first")

	o, err := s.AdvanceOrder(placed.Order.ID, models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, o.Status)
	assert.Nil(t, o.CompletedAt)

	_, err = s.AdvanceOrder(placed.Order.ID, models.OrderStatusConfirmed)
	assert.Equal(t, http.StatusConflict, StatusOf(err))

	o, err = s.AdvanceOrder(placed.Order.ID, models.OrderStatusServed)
	require.NoError(t, err)
	require.NotNil(t, o.CompletedAt)

	_, err = s.AdvanceOrder(placed.Order.ID, models.OrderStatusCancelled)
	assert.Equal(t, http.StatusConflict, StatusOf(err), "served orders are final")

	_, err = s.AdvanceOrder("missing", models.OrderStatusReady)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestSessionExpiresWithClock(t *testing.T) {
	s, c := seeded(t)
	c.advance(3 * time.Hour)

	_, err := s.AddToCart(SeedSessionID, models.AddToCartRequest{MenuItemID: "M1", Quantity: 1})
	assert.Equal(t, http.StatusGone, StatusOf(err))

	resp, err := s.Session(SeedSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusExpired, resp.Session.Status)
}

func TestLoginAndRefresh(t *testing.T) {
	s, c := seeded(t)

	_, err := s.Login(models.LoginRequest{Email: SeedAdminEmail, Password: "wrong", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	_, err = s.Login(models.LoginRequest{Email: SeedAdminEmail, Password: SeedAdminPassword, Role: models.RoleStore})
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err), "role is part of the credentials")

	resp, err := s.Login(models.LoginRequest{Email: "ADMIN@example.com", Password: SeedAdminPassword, Role: models.RoleAdmin})
	require.NoError(t, err)
	claims, err := auth.Verify(resp.Token, "secret")
	require.NoError(t, err)
	assert.Equal(t, SeedAdminID, claims.Subject)
	assert.Equal(t, c.t.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	again, err := s.Refresh(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, again.RefreshToken)

	_, err = s.Refresh(resp.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err), "refresh tokens are single use")

	s.Logout(SeedAdminID)
	_, err = s.Refresh(again.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestSeatQRRegeneration(t *testing.T) {
	s, _ := seeded(t)

	qr, err := s.SeatQR(SeedStoreID, SeedSeatID)
	require.NoError(t, err)
	assert.Equal(t, "http://order.test/order/"+SeedSessionID, qr.SessionURL)
	assert.Contains(t, qr.QRCodeURL, "data:image/png;base64,")

	fresh, err := s.RegenerateSeatQR(SeedStoreID, SeedSeatID)
	require.NoError(t, err)
	assert.NotEqual(t, qr.SessionURL, fresh.SessionURL)
	assert.NotEqual(t, qr.QRCode, fresh.QRCode)

	old, err := s.Session(SeedSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, old.Session.Status)

	_, err = s.SeatQR("other-store", SeedSeatID)
	assert.Equal(t, http.StatusNotFound, StatusOf(err), "seats are scoped to their store")
}

func TestListStoresFilters(t *testing.T) {
	s, c := seeded(t)
	c.advance(time.Second)
	_, err := s.CreateStore(models.CreateStoreRequest{Name: "Ginza", Address: "Chuo"})
	require.NoError(t, err)

	all := s.ListStores(models.ListParams{})
	assert.Equal(t, 2, all.Total)

	found := s.ListStores(models.ListParams{Search: "gin"})
	require.Len(t, found.Stores, 1)
	assert.Equal(t, "Ginza", found.Stores[0].Name)

	paged := s.ListStores(models.ListParams{Page: 2, Limit: 1})
	assert.Len(t, paged.Stores, 1)
	assert.Equal(t, 2, paged.Page)

	_, err = s.CreateStore(models.CreateStoreRequest{})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}
