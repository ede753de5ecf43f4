// Package memstore is the in-memory state of the development backend. It
// owns the server-side rules the client relies on: cart totals, quantity
// bounds, availability, order placement and forward-only order status.
package memstore

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// Error is a failure with the HTTP status and code the API reports for it
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, code, format string, args ...any) *Error {
	return &Error{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFound(what, id string) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", "%s %s not found", what, id)
}

func invalid(format string, args ...any) *Error {
	return newError(http.StatusBadRequest, "VALIDATION_ERROR", format, args...)
}

// StatusOf returns the HTTP status of err, 500 for foreign errors
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Options configures a Store
type Options struct {
	Now        func() time.Time
	SessionTTL time.Duration
	// PublicURL is the customer site root QR codes point at
	PublicURL string
	JWTSecret string
	TokenTTL  time.Duration
}

type account struct {
	manager models.Manager
	hash    []byte
}

// Store is safe for concurrent use
type Store struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*models.OrderSession
	menus    map[string]*models.Menu // by store
	carts    map[string]*models.Cart // by session
	orders   map[string][]*models.Order
	byID     map[string]*models.Order
	stores   map[string]*models.Store
	accounts map[string]*account // by user id
	seats    map[string]*models.Seat
	qrs      map[string]string // seat id to current session id
	refresh  map[string]string // refresh token to user id
	orderSeq int
}

// New creates an empty store
func New(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Store{
		opts:     opts,
		sessions: make(map[string]*models.OrderSession),
		menus:    make(map[string]*models.Menu),
		carts:    make(map[string]*models.Cart),
		orders:   make(map[string][]*models.Order),
		byID:     make(map[string]*models.Order),
		stores:   make(map[string]*models.Store),
		accounts: make(map[string]*account),
		seats:    make(map[string]*models.Seat),
		qrs:      make(map[string]string),
		refresh:  make(map[string]string),
	}
}

func (s *Store) now() time.Time {
	return s.opts.Now()
}

// page slices items for list endpoints. Page and limit default to 1 and 20.
func page[T any](items []T, params models.ListParams) (out []T, total, pageNo, limit int) {
	pageNo, limit = params.Page, params.Limit
	if pageNo <= 0 {
		pageNo = 1
	}
	if limit <= 0 {
		limit = 20
	}
	total = len(items)
	start := (pageNo - 1) * limit
	if start >= total {
		return []T{}, total, pageNo, limit
	}
	end := min(start+limit, total)
	return items[start:end], total, pageNo, limit
}

func sortedByCreation[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci.Equal(cj) {
			return id(items[i]) < id(items[j])
		}
		return ci.Before(cj)
	})
}

// HTTPStatus implements api.StatusError
func (e *Error) HTTPStatus() int { return e.Status }

// ErrorCode implements api.StatusError
func (e *Error) ErrorCode() string { return e.Code }
