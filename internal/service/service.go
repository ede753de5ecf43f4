// Package service holds the client-side domain logic: the order session and
// cart state machine, order tracking, authentication and the back-office
// services. Every read goes through the query cache; every write invalidates
// the entries it affects.
package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/config"
)

// API is the subset of *client.Client the services need
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

var _ API = (*client.Client)(nil)

// Domain errors. Returned errors wrap these, test with errors.Is.
var (
	ErrNoSession          = errors.New("no session id")
	ErrSessionInvalid     = errors.New("order session is invalid")
	ErrSessionUnusable    = errors.New("order session is not active")
	ErrSessionClosed      = errors.New("order session is closed")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrItemUnavailable    = errors.New("menu item is unavailable")
	ErrMenuItemNotFound   = errors.New("menu item not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
)

// Cache resources
const (
	ResourceSession  = "order.session"
	ResourceMenu     = "order.menu"
	ResourceCart     = "order.cart"
	ResourceHistory  = "order.history"
	ResourceStores   = "admin.stores"
	ResourceStore    = "admin.store"
	ResourceStats    = "admin.store.stats"
	ResourceManagers = "admin.managers"
	ResourceManager  = "admin.manager"
	ResourceSeats    = "store.seats"
	ResourceSeat     = "store.seat"
	ResourceSeatQR   = "store.seat.qr"
)

// Policies are the cache policies of every resource
type Policies struct {
	Session cache.Policy
	Menu    cache.Policy
	Cart    cache.Policy
	History cache.Policy
	Admin   cache.Policy
	Seats   cache.Policy
	SeatQR  cache.Policy
	Stats   cache.Policy
}

// PoliciesFrom builds the cache policies from configuration. Only reads retry,
// and only on network errors and 5xx responses.
func PoliciesFrom(c config.Cache) Policies {
	read := func(stale time.Duration) cache.Policy {
		return cache.Policy{
			StaleTime:   stale,
			Retry:       c.QueryRetry,
			RetryDelay:  c.RetryDelay,
			ShouldRetry: client.IsRetryable,
		}
	}

	p := Policies{
		Session: read(c.SessionStale),
		Menu:    read(c.MenuStale),
		Cart:    read(0),
		History: read(c.HistoryStale),
		Admin:   read(c.AdminStale),
		Seats:   read(c.SeatStale),
		SeatQR:  read(c.SeatQRStale),
		Stats:   read(c.StatsStale),
	}
	p.Session.Retry = c.SessionRetry
	p.Cart.RefetchInterval = c.CartPoll
	return p
}

// DefaultPolicies returns the policies of the built-in configuration
func DefaultPolicies() Policies {
	return PoliciesFrom(config.Default().Cache)
}
