package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/router"
	"github.com/howlrs/pos-qr-go/internal/storage"
	"github.com/howlrs/pos-qr-go/internal/websockets"
)

const testSecret = "test-secret"

func quietLogger() *log.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

// backend is the development API served over httptest, recording the
// requests it receives
type backend struct {
	store  *memstore.Store
	hub    *websockets.Hub
	srv    *httptest.Server
	api    *client.Client
	cache  *cache.Cache
	tokens *auth.Store

	mu       sync.Mutex
	requests []string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	logger := quietLogger()

	store, err := memstore.NewSeeded(memstore.Options{
		JWTSecret: testSecret,
		PublicURL: "http://order.test",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := websockets.NewHub(logger)
	go hub.Run(ctx)

	b := &backend{store: store, hub: hub}
	h := router.New(store, hub, router.Options{JWTSecret: testSecret, Origins: []string{"*"}, Logger: logger})
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		b.srv.Close()
		cancel()
	})

	b.tokens = auth.NewStore(storage.NewMemory(), logger)
	b.api = client.New(client.Options{
		BaseURL:        b.srv.URL + "/api",
		Tokens:         b.tokens,
		OnUnauthorized: b.tokens.ClearOnUnauthorized,
		Logger:         logger,
	})
	b.cache = cache.New(cache.WithLogger(logger))
	return b
}

func (b *backend) session(t *testing.T, id string) *OrderSession {
	t.Helper()
	s, err := NewOrderSession(id, Deps{
		API:      b.api,
		Cache:    b.cache,
		Policies: DefaultPolicies(),
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// calls returns the recorded requests matching method and path suffix
func (b *backend) calls(method, suffix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if strings.HasPrefix(r, method+" ") && strings.HasSuffix(r, suffix) {
			n++
		}
	}
	return n
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *backend) login(t *testing.T, role models.UserRole, email, password string) *AuthService {
	t.Helper()
	svc := NewAuthService(b.api, b.tokens, b.cache, 0, quietLogger())
	_, err := svc.Login(context.Background(), role, email, password)
	require.NoError(t, err)
	return svc
}
