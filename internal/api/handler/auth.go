package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/middleware"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// AuthHandler handles login, token refresh and logout
type AuthHandler struct {
	store *memstore.Store
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store *memstore.Store) *AuthHandler {
	return &AuthHandler{store: store}
}

// RegisterRoutes adds the public auth routes
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/admin/login", h.login(models.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/auth/store/login", h.login(models.RoleStore)).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.refresh).Methods(http.MethodPost)
}

// RegisterProtectedRoutes adds the routes that need a valid token
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
}

// login handles credentials for one role
func (h *AuthHandler) login(role models.UserRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := api.Decode(r, &req); err != nil {
			api.BadRequest(w, err.Error())
			return
		}
		if req.Email == "" || req.Password == "" {
			api.BadRequest(w, "email and password are required")
			return
		}
		req.Role = role

		resp, err := h.store.Login(req)
		if err != nil {
			api.FromError(w, err)
			return
		}
		api.OK(w, resp)
	}
}

// refresh rotates a refresh token
func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	if req.RefreshToken == "" {
		api.Unauthorized(w, "refresh token required")
		return
	}
	resp, err := h.store.Refresh(req.RefreshToken)
	if err != nil {
		api.FromError(w, err)
		return
	}
	api.OK(w, resp)
}

// logout revokes the caller's refresh tokens
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		api.Unauthorized(w, "Unauthorized")
		return
	}
	h.store.Logout(userID)
	api.OK(w, nil)
}
