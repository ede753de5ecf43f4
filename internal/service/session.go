package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// Deps are the collaborators of an OrderSession
type Deps struct {
	API      API
	Cache    *cache.Cache
	Policies Policies
	Logger   log.FieldLogger
	// Now is the clock used for expiry checks
	Now func() time.Time
}

// ViewStatus is the combined state of the session, menu and cart entries
type ViewStatus int

const (
	ViewIdle ViewStatus = iota
	ViewLoading
	ViewReady
	ViewError
	// ViewInvalid is terminal for the session id
	ViewInvalid
)

func (s ViewStatus) String() string {
	switch s {
	case ViewIdle:
		return "idle"
	case ViewLoading:
		return "loading"
	case ViewReady:
		return "ready"
	case ViewError:
		return "error"
	case ViewInvalid:
		return "invalid"
	}
	return "unknown"
}

// View is everything the ordering screen shows for a session
type View struct {
	Session *models.OrderSession
	Menu    *models.Menu
	Cart    *models.Cart
}

// OrderSession is the customer ordering flow for one session id. It is safe
// for concurrent use. Close it when the customer leaves; requests still in
// flight are cancelled and their results are never cached.
type OrderSession struct {
	id       string
	api      API
	cache    *cache.Cache
	policies Policies
	logger   log.FieldLogger
	now      func() time.Time
	serial   *Serializer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	invalid error
}

// NewOrderSession creates the ordering flow for sessionID
func NewOrderSession(sessionID string, deps Deps) (*OrderSession, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if deps.API == nil || deps.Cache == nil {
		return nil, fmt.Errorf("order session %s: api and cache are required", sessionID)
	}
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &OrderSession{
		id:       sessionID,
		api:      deps.API,
		cache:    deps.Cache,
		policies: deps.Policies,
		logger:   deps.Logger.WithField("sessionId", sessionID),
		now:      deps.Now,
		serial:   NewSerializer(),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// ID returns the session id
func (s *OrderSession) ID() string {
	return s.id
}

func (s *OrderSession) key(resource string) cache.Key {
	return cache.Key{Resource: resource, Scope: s.id}
}

// Close cancels every in-flight request of the session
func (s *OrderSession) Close() {
	s.cancel()
}

// scope ties a call to both the caller's context and the session lifetime
func (s *OrderSession) scope(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, nil, ErrSessionClosed
	}
	if err := s.Invalid(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}, nil
}

// Invalid returns the terminal error of the session, or nil while it can
// still be used
func (s *OrderSession) Invalid() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalid
}

func (s *OrderSession) markInvalid(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalid == nil {
		s.invalid = fmt.Errorf("session %s: %w: %w", s.id, ErrSessionInvalid, cause)
		s.logger.WithError(cause).Warn("Order session is invalid")
	}
	return s.invalid
}

// Session returns the session descriptor. A session the server does not know
// marks this OrderSession invalid for good.
func (s *OrderSession) Session(ctx context.Context) (*models.OrderSession, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return s.session(ctx)
}

func (s *OrderSession) session(ctx context.Context) (*models.OrderSession, error) {
	sess, err := cache.Get(ctx, s.cache, s.key(ResourceSession), s.policies.Session,
		func(ctx context.Context) (*models.OrderSession, error) {
			var resp models.OrderSessionResponse
			if err := s.api.Get(ctx, client.SessionPath(s.id), nil, &resp); err != nil {
				return nil, err
			}
			return &resp.Session, nil
		})
	if err != nil {
		if ctx.Err() == nil && !client.IsRetryable(err) && !client.IsUnauthorized(err) {
			return nil, s.markInvalid(err)
		}
		return nil, fmt.Errorf("get session %s: %w", s.id, err)
	}
	return sess, nil
}

// usable loads the session and refuses to go on unless it is active and
// unexpired. An unusable session never becomes usable again.
func (s *OrderSession) usable(ctx context.Context) (*models.OrderSession, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Usable(s.now()) {
		return sess, s.markInvalid(unusableError(sess))
	}
	return sess, nil
}

func unusableError(sess *models.OrderSession) error {
	return fmt.Errorf("%w: status %s, expires %s",
		ErrSessionUnusable, sess.Status, sess.ExpiresAt.Format(time.RFC3339))
}

// Menu returns the session menu
func (s *OrderSession) Menu(ctx context.Context) (*models.Menu, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}
	return s.menu(ctx)
}

func (s *OrderSession) menu(ctx context.Context) (*models.Menu, error) {
	menu, err := cache.Get(ctx, s.cache, s.key(ResourceMenu), s.policies.Menu,
		func(ctx context.Context) (*models.Menu, error) {
			var resp models.MenuResponse
			if err := s.api.Get(ctx, client.MenuPath(s.id), nil, &resp); err != nil {
				return nil, err
			}
			return &resp, nil
		})
	if err != nil {
		return nil, fmt.Errorf("get menu: %w", err)
	}
	return menu, nil
}

// Cart returns the session cart. The cart is never served from cache without
// a refetch.
func (s *OrderSession) Cart(ctx context.Context) (*models.Cart, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	if _, err := s.usable(ctx); err != nil {
		return nil, err
	}
	return s.cart(ctx)
}

func (s *OrderSession) cart(ctx context.Context) (*models.Cart, error) {
	cart, err := cache.Get(ctx, s.cache, s.key(ResourceCart), s.policies.Cart, s.fetchCart)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *OrderSession) fetchCart(ctx context.Context) (*models.Cart, error) {
	var resp models.CartResponse
	if err := s.api.Get(ctx, client.CartPath(s.id), nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Cart.Validate(); err != nil {
		s.logger.WithError(err).Error("Server cart totals are inconsistent")
	}
	return &resp.Cart, nil
}

// Load fetches the session, menu and cart concurrently. The first failure is
// returned and cancels the other fetches. A 404 from any of them makes the
// session invalid.
func (s *OrderSession) Load(ctx context.Context) (View, error) {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return View{}, err
	}
	defer done()

	// A cached session that has run out by the local clock is refused
	// before any request goes out.
	if cached, ok := cache.PeekAs[*models.OrderSession](s.cache, s.key(ResourceSession)); ok && cached != nil && !cached.Usable(s.now()) {
		return View{Session: cached}, s.markInvalid(unusableError(cached))
	}

	var v View
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sess, err := s.session(gctx)
		v.Session = sess
		return err
	})
	g.Go(func() error {
		menu, err := s.menu(gctx)
		v.Menu = menu
		return err
	})
	g.Go(func() error {
		cart, err := s.cart(gctx)
		v.Cart = cart
		return err
	})
	if err := g.Wait(); err != nil {
		if invalid := s.Invalid(); invalid != nil {
			return v, invalid
		}
		// Any of the three reports a missing session as 404.
		if ctx.Err() == nil && client.IsNotFound(err) {
			return v, s.markInvalid(err)
		}
		return v, err
	}

	if !v.Session.Usable(s.now()) {
		return v, s.markInvalid(unusableError(v.Session))
	}
	return v, nil
}

// Status combines the cache state of the session, menu and cart. It is
// loading while any entry loads and failed if any entry failed.
func (s *OrderSession) Status() (ViewStatus, error) {
	if err := s.Invalid(); err != nil {
		return ViewInvalid, err
	}
	snaps := []cache.Snapshot{
		s.cache.Snapshot(s.key(ResourceSession), s.policies.Session),
		s.cache.Snapshot(s.key(ResourceMenu), s.policies.Menu),
		s.cache.Snapshot(s.key(ResourceCart), s.policies.Cart),
	}
	for _, snap := range snaps {
		if snap.Status == cache.StatusLoading {
			return ViewLoading, nil
		}
	}
	for _, snap := range snaps {
		if snap.Status == cache.StatusError {
			return ViewError, snap.Err
		}
	}
	for _, snap := range snaps {
		if !snap.HasValue {
			return ViewIdle, nil
		}
	}
	return ViewReady, nil
}

// PollCart refetches the cart on the cart policy interval, handing each
// result to fn, until ctx ends, the session is closed or it becomes invalid.
func (s *OrderSession) PollCart(ctx context.Context, fn func(*models.Cart, error)) error {
	ctx, done, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer done()

	ctx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	err = s.cache.Poll(ctx, s.key(ResourceCart), s.policies.Cart,
		func(ctx context.Context) (any, error) {
			if _, err := s.usable(ctx); err != nil {
				return nil, err
			}
			return s.fetchCart(ctx)
		},
		func(v any, err error) {
			if invalid := s.Invalid(); invalid != nil {
				stop(invalid)
				return
			}
			if fn == nil {
				return
			}
			cart, _ := v.(*models.Cart)
			fn(cart, err)
		})
	if cause := context.Cause(ctx); cause != nil && cause != context.Canceled {
		return cause
	}
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	return err
}
