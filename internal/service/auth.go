package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// ErrRoleMismatch is returned when a login answers with a user of another role
var ErrRoleMismatch = errors.New("signed in user has a different role")

// AuthService handles back-office authentication
type AuthService struct {
	api           API
	store         *auth.Store
	cache         *cache.Cache
	refreshWithin time.Duration
	logger        log.FieldLogger
}

// NewAuthService creates a new authentication service. Received tokens go to
// store; cache is cleared whenever the signed in user changes.
func NewAuthService(api API, store *auth.Store, c *cache.Cache, refreshWithin time.Duration, logger log.FieldLogger) *AuthService {
	if refreshWithin <= 0 {
		refreshWithin = auth.DefaultExpiryWindow
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &AuthService{
		api:           api,
		store:         store,
		cache:         c,
		refreshWithin: refreshWithin,
		logger:        logger,
	}
}

// AdminLogin signs in an administrator
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*models.AuthUser, error) {
	return s.Login(ctx, models.RoleAdmin, email, password)
}

// StoreLogin signs in a store manager
func (s *AuthService) StoreLogin(ctx context.Context, email, password string) (*models.AuthUser, error) {
	return s.Login(ctx, models.RoleStore, email, password)
}

// Login authenticates against the login endpoint of role. The returned token
// is validated before it is stored.
func (s *AuthService) Login(ctx context.Context, role models.UserRole, email, password string) (*models.AuthUser, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("login: unknown role %q", role)
	}

	var resp models.LoginResponse
	req := models.LoginRequest{Email: email, Password: password, Role: role}
	if err := s.api.Post(ctx, client.LoginPath(role), req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if !auth.IsValid(resp.Token, s.store.Now()) {
		return nil, fmt.Errorf("login: received token: %w", auth.ErrInvalidToken)
	}
	user := resp.User
	if user == nil {
		u, err := auth.ExtractUser(resp.Token)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		user = u
	}
	if user.Role != role {
		return nil, fmt.Errorf("login as %s: %w (%s)", role, ErrRoleMismatch, user.Role)
	}

	s.cache.Clear()
	if err := s.store.Login(ctx, resp.Token, resp.RefreshToken, user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.logger.WithFields(log.Fields{"userId": user.ID, "role": user.Role}).Info("Logged in")
	return s.store.User(), nil
}

// Refresh exchanges the refresh token for a new access token. Any failure
// signs the user out.
func (s *AuthService) Refresh(ctx context.Context) error {
	var resp models.LoginResponse
	req := models.RefreshTokenRequest{RefreshToken: s.store.RefreshToken()}
	err := s.api.Post(ctx, client.RefreshPath, req, &resp)
	if err == nil && !auth.IsValid(resp.Token, s.store.Now()) {
		err = fmt.Errorf("received token: %w", auth.ErrInvalidToken)
	}
	if err == nil {
		if resp.User != nil {
			err = s.store.Login(ctx, resp.Token, resp.RefreshToken, resp.User)
		} else {
			err = s.store.SetToken(ctx, resp.Token, resp.RefreshToken)
		}
	}
	if err != nil {
		s.logger.WithError(err).Warn("Token refresh failed, logging out")
		s.clearLocal(ctx)
		return fmt.Errorf("refresh token: %w", err)
	}
	s.logger.Debug("Token refreshed")
	return nil
}

// Logout tells the server, then clears local state and the query cache. Local
// state is cleared even when the server call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.store.Token() != "" {
		if err := s.api.Post(ctx, client.LogoutPath, nil, nil); err != nil {
			s.logger.WithError(err).Warn("Logout request failed")
		}
	}
	return s.clearLocal(ctx)
}

func (s *AuthService) clearLocal(ctx context.Context) error {
	s.cache.Clear()
	if err := s.store.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CheckTokenExpiration refreshes the token when it expires within the
// configured window. It reports whether a refresh happened.
func (s *AuthService) CheckTokenExpiration(ctx context.Context) (bool, error) {
	token := s.store.Token()
	if token == "" || !s.store.IsAuthenticated() {
		return false, nil
	}
	if !auth.WillExpireSoon(token, s.store.Now(), s.refreshWithin) {
		return false, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}
