package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/config"
	"github.com/howlrs/pos-qr-go/internal/monitoring"
	"github.com/howlrs/pos-qr-go/internal/service"
	"github.com/howlrs/pos-qr-go/internal/storage"
)

// app holds the objects every command shares
type app struct {
	cfg    *config.Config
	logger log.FieldLogger
	out    io.Writer

	client   *client.Client
	cache    *cache.Cache
	policies service.Policies
	tokens   *auth.Store
	auth     *service.AuthService
	stores   *service.StoreService
	managers *service.ManagerService
	seats    *service.SeatService
	staff    *service.StaffOrderService
	feed     *service.StatusFeed
	qr       service.QRGenerator
	boundary *monitoring.Boundary

	mu        sync.Mutex
	sessionID string

	closers []func() error
}

// newApp wires the client stack from cfg. Auth state is restored from local
// storage before it returns.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, logger: logger, out: out, qr: service.DefaultQRGenerator{}}

	local, closeStorage, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	a.closers = append(a.closers, closeStorage)

	a.tokens = auth.NewStore(local, logger)
	if err := a.tokens.Rehydrate(ctx); err != nil {
		logger.WithError(err).Warn("Could not restore auth state")
	}

	a.client = client.New(client.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		Tokens:         a.tokens,
		OnUnauthorized: a.tokens.ClearOnUnauthorized,
		Logger:         logger,
		Debug:          cfg.API.Debug,
		RequestIDs:     cfg.IsDevelopment(),
	})
	a.cache = cache.New(cache.WithLogger(logger))
	a.policies = service.PoliciesFrom(cfg.Cache)

	a.auth = service.NewAuthService(a.client, a.tokens, a.cache, cfg.Cache.RefreshWithin, logger)
	a.stores = service.NewStoreService(a.client, a.cache, a.policies, logger)
	a.managers = service.NewManagerService(a.client, a.cache, a.policies, logger)
	a.seats = service.NewSeatService(a.client, a.cache, a.policies, logger)
	a.staff = service.NewStaffOrderService(a.client, a.cache, logger)

	if cfg.Push.Enabled {
		feedURL := cfg.Push.URL
		if feedURL == "" {
			feedURL = serverRoot(cfg.API.BaseURL)
		}
		a.feed = service.NewStatusFeed(feedURL, logger)
	}

	var reporter monitoring.Reporter = monitoring.NewLogReporter(logger)
	if cfg.Monitoring.Enabled && len(cfg.Monitoring.Brokers) > 0 {
		w := monitoring.NewKafkaWriter(cfg.Monitoring)
		a.closers = append(a.closers, w.Close)
		reporter = monitoring.Multi{reporter, monitoring.NewKafkaReporter(w)}
	}
	a.boundary = monitoring.NewBoundary(reporter, a.identity, logger)

	return a, nil
}

var _ monitoring.MessageWriter = (*kafka.Writer)(nil)

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// identity tags panic reports with the session and user in use
func (a *app) identity() (string, string) {
	a.mu.Lock()
	sessionID := a.sessionID
	a.mu.Unlock()

	var userID string
	if u := a.tokens.User(); u != nil {
		userID = u.ID
	}
	return sessionID, userID
}

// orderSession opens the ordering flow for sessionID. The caller closes it.
func (a *app) orderSession(sessionID string) (*service.OrderSession, error) {
	s, err := service.NewOrderSession(sessionID, service.Deps{
		API:      a.client,
		Cache:    a.cache,
		Policies: a.policies,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.sessionID = sessionID
	a.mu.Unlock()
	return s, nil
}

// guard refreshes a token close to expiry, then checks req
func (a *app) guard(ctx context.Context, req auth.Requirement) error {
	if a.tokens.IsAuthenticated() {
		if _, err := a.auth.CheckTokenExpiration(ctx); err != nil {
			a.logger.WithError(err).Warn("Token refresh failed")
		}
	}

	d := auth.NewGuard(a.tokens, req).Check(ctx)
	if d.Allowed() {
		return nil
	}
	if d.State == auth.StateUnauthenticated {
		return fmt.Errorf("%w: run 'qrorder login %s' (%s)", errUnauthenticated, req.Role, d.RedirectTo)
	}
	return fmt.Errorf("%w: %s", errDenied, d.Reason)
}

// serverRoot strips the REST prefix from the API base URL
func serverRoot(baseURL string) string {
	return strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api")
}

var (
	errUnauthenticated = errors.New("not logged in")
	errDenied          = errors.New("access denied")
)
