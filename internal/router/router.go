// Package router wires the development backend's handlers into one
// http.Handler.
package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/api/handler"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/middleware"
	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/websockets"
)

// Options configures New
type Options struct {
	// JWTSecret verifies bearer tokens on protected routes
	JWTSecret string
	// Origins lists the browser origins allowed by CORS and the websocket feed
	Origins []string
	Logger  log.FieldLogger
}

// New creates the HTTP handler of the development backend. REST routes live
// under /api; the order feed is served at /ws/order/{sessionId}.
func New(store *memstore.Store, hub *websockets.Hub, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	r := mux.NewRouter()
	r.Use(middleware.Logger(logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.NotFound(w, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	handler.NewWebSocketHandler(hub, store, opts.Origins).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", health).Methods(http.MethodGet)

	authHandler := handler.NewAuthHandler(store)
	orderHandler := handler.NewOrderHandler(store, hub, logger)

	// Public routes
	authHandler.RegisterRoutes(apiRouter)
	orderHandler.RegisterRoutes(apiRouter)

	// Any authenticated user
	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(middleware.Auth(opts.JWTSecret))
	authHandler.RegisterProtectedRoutes(protected)

	// Platform administrators
	admin := apiRouter.NewRoute().Subrouter()
	admin.Use(middleware.Auth(opts.JWTSecret), middleware.RequireRole(models.RoleAdmin))
	handler.NewStoreHandler(store).RegisterRoutes(admin)
	handler.NewManagerHandler(store).RegisterRoutes(admin)

	// Store managers
	staff := apiRouter.NewRoute().Subrouter()
	staff.Use(middleware.Auth(opts.JWTSecret), middleware.RequireRole(models.RoleStore))
	handler.NewSeatHandler(store).RegisterRoutes(staff)
	orderHandler.RegisterStaffRoutes(staff)

	return cors.New(cors.Options{
		AllowedOrigins:   opts.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)
}

func health(w http.ResponseWriter, _ *http.Request) {
	api.OK(w, map[string]string{"status": "ok"})
}
