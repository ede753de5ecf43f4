package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/storage"
)

// StorageKey is the key under which auth state is persisted
const StorageKey = "pos-qr-auth"

// State is the persisted auth record
type State struct {
	User            *models.AuthUser `json:"user"`
	Token           string           `json:"token"`
	RefreshToken    string           `json:"refreshToken,omitempty"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	TokenExpiresAt  time.Time        `json:"tokenExpiresAt"`
}

// Store holds the current token and user and mirrors them to LocalStorage.
// Every login, token replacement or logout bumps its generation.
type Store struct {
	storage storage.LocalStorage
	logger  log.FieldLogger
	now     func() time.Time

	mu    sync.RWMutex
	state State
	gen   uint64
}

// NewStore creates an empty store over st
func NewStore(st storage.LocalStorage, logger log.FieldLogger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{storage: st, logger: logger, now: time.Now}
}

// SetClock overrides the time source used for expiry checks
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	s.mu.RLock()
	now := s.now
	s.mu.RUnlock()
	return now()
}

// Rehydrate loads persisted state. A stored token that is invalid or expired
// logs the user out immediately.
func (s *Store) Rehydrate(ctx context.Context) error {
	raw, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rehydrate auth state: %w", err)
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.WithError(err).Warn("Discarding unreadable auth state")
		return s.Logout(ctx)
	}

	now := s.Now()
	if st.Token == "" || !IsValid(st.Token, now) {
		s.logger.Info("Stored token is invalid or expired, logging out")
		return s.Logout(ctx)
	}
	// Records written before tokenExpiresAt existed take it from the token.
	if st.TokenExpiresAt.IsZero() {
		st.TokenExpiresAt, _ = ExpiresAt(st.Token)
	}
	if !st.TokenExpiresAt.After(now) {
		s.logger.WithField("tokenExpiresAt", st.TokenExpiresAt).Info("Stored auth state has expired, logging out")
		return s.Logout(ctx)
	}

	s.mu.Lock()
	s.state = st
	s.gen++
	s.mu.Unlock()
	return nil
}

// Login stores a validated token. A nil user is extracted from the token claims.
func (s *Store) Login(ctx context.Context, token, refreshToken string, user *models.AuthUser) error {
	if !IsValid(token, s.Now()) {
		return ErrInvalidToken
	}
	exp, err := ExpiresAt(token)
	if err != nil {
		return err
	}
	if user == nil {
		u, err := ExtractUser(token)
		if err != nil {
			return err
		}
		user = u
	}
	return s.replace(ctx, State{
		User:            user,
		Token:           token,
		RefreshToken:    refreshToken,
		IsAuthenticated: true,
		TokenExpiresAt:  exp,
	})
}

// SetToken replaces the tokens but keeps the current user
func (s *Store) SetToken(ctx context.Context, token, refreshToken string) error {
	if !IsValid(token, s.Now()) {
		return ErrInvalidToken
	}
	exp, err := ExpiresAt(token)
	if err != nil {
		return err
	}
	st := s.State()
	if st.User == nil {
		u, err := ExtractUser(token)
		if err != nil {
			return err
		}
		st.User = u
	}
	st.Token = token
	st.TokenExpiresAt = exp
	if refreshToken != "" {
		st.RefreshToken = refreshToken
	}
	st.IsAuthenticated = true
	return s.replace(ctx, st)
}

func (s *Store) replace(ctx context.Context, st State) error {
	buf, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode auth state: %w", err)
	}

	s.mu.Lock()
	s.state = st
	s.gen++
	s.mu.Unlock()

	if err := s.storage.Set(ctx, StorageKey, string(buf)); err != nil {
		return fmt.Errorf("persist auth state: %w", err)
	}
	return nil
}

// Logout clears in-memory and persisted state
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = State{}
	s.gen++
	s.mu.Unlock()

	if err := s.storage.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear auth state: %w", err)
	}
	return nil
}

// ClearOnUnauthorized is the hook for 401 responses
func (s *Store) ClearOnUnauthorized() {
	if err := s.Logout(context.Background()); err != nil {
		s.logger.WithError(err).Warn("Failed to clear auth state after 401")
	}
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		u.Permissions = append([]string(nil), st.User.Permissions...)
		st.User = &u
	}
	return st
}

// Token returns the current access token, implementing client.TokenSource
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// RefreshToken returns the current refresh token
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// User returns a copy of the current user, or nil
func (s *Store) User() *models.AuthUser {
	return s.State().User
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated && s.state.User != nil
}

// Generation changes on every login, token replacement and logout
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Capabilities returns the current user's capability set
func (s *Store) Capabilities() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Capabilities(s.state.User)
}

// HasPermission reports whether the current user holds p
func (s *Store) HasPermission(p string) bool {
	return s.Capabilities().Has(p)
}

// IsAdmin reports whether the current user is an administrator
func (s *Store) IsAdmin() bool {
	return s.Capabilities().Has(RoleCapability(models.RoleAdmin))
}

// IsStore reports whether the current user is a store manager
func (s *Store) IsStore() bool {
	return s.Capabilities().Has(RoleCapability(models.RoleStore))
}
