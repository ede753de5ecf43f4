package memstore

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
)

var errInvalidCredentials = newError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")

// AddAccount registers a back-office user with a bcrypt password hash
func (s *Store) AddAccount(user models.AuthUser, password, createdBy string) (*models.Manager, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Permissions == nil {
		user.Permissions = auth.ForRole(user.Role)
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = &now, &now

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.manager.Email, user.Email) {
			return nil, newError(http.StatusConflict, "EMAIL_TAKEN", "email %s is already registered", user.Email)
		}
	}
	a := &account{
		manager: models.Manager{AuthUser: user, IsActive: true, CreatedBy: createdBy},
		hash:    hash,
	}
	s.accounts[user.ID] = a
	m := a.manager
	return &m, nil
}

// Login checks credentials for role and issues an access and refresh token
func (s *Store) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	s.mu.Lock()
	var found *account
	for _, a := range s.accounts {
		if strings.EqualFold(a.manager.Email, req.Email) && a.manager.Role == req.Role {
			found = a
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(found.hash, []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !found.manager.IsActive {
		return nil, newError(http.StatusForbidden, "ACCOUNT_INACTIVE", "user account is inactive")
	}
	now := s.now()
	found.manager.LastLoginAt = &now
	return s.issueLocked(found)
}

// Refresh issues a new access token for a refresh token. The refresh token
// is rotated.
func (s *Store) Refresh(refreshToken string) (*models.LoginResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refresh[refreshToken]
	if !ok {
		return nil, newError(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token is invalid")
	}
	delete(s.refresh, refreshToken)
	a, ok := s.accounts[userID]
	if !ok || !a.manager.IsActive {
		return nil, newError(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token is invalid")
	}
	return s.issueLocked(a)
}

// Logout forgets the refresh tokens of a user
func (s *Store) Logout(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, id := range s.refresh {
		if id == userID {
			delete(s.refresh, tok)
		}
	}
}

func (s *Store) issueLocked(a *account) (*models.LoginResponse, error) {
	now := s.now()
	u := a.manager.AuthUser
	claims := &auth.Claims{
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		StoreID:     u.StoreID,
		Permissions: u.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := auth.Issue(claims, s.opts.JWTSecret)
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	s.refresh[refresh] = u.ID
	user := u
	user.Permissions = append([]string(nil), u.Permissions...)
	return &models.LoginResponse{Token: token, RefreshToken: refresh, User: &user}, nil
}

// ListManagers returns a page of store manager accounts
func (s *Store) ListManagers(params models.ListParams) *models.ManagersListResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(params.Search)
	var all []models.Manager
	for _, a := range s.accounts {
		m := a.manager
		if m.Role != models.RoleStore {
			continue
		}
		if params.IsActive != nil && m.IsActive != *params.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Email), q) {
			continue
		}
		all = append(all, m)
	}
	sortedByCreation(all, func(m models.Manager) time.Time { return *m.CreatedAt }, func(m models.Manager) string { return m.ID })
	items, total, p, l := page(all, params)
	return &models.ManagersListResponse{Managers: items, Total: total, Page: p, Limit: l}
}

// Manager returns a store manager account
func (s *Store) Manager(id string) (*models.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.manager.Role != models.RoleStore {
		return nil, notFound("manager", id)
	}
	m := a.manager
	return &m, nil
}

// CreateManager registers a store manager
func (s *Store) CreateManager(req models.CreateManagerRequest, createdBy string) (*models.Manager, error) {
	if req.Email == "" || req.Name == "" || len(req.Password) < 6 {
		return nil, invalid("name, email and a password of at least 6 characters are required")
	}
	perms := req.Permissions
	if len(perms) == 0 {
		perms = auth.StoreAll()
	}
	return s.AddAccount(models.AuthUser{
		Email:       req.Email,
		Name:        req.Name,
		Role:        models.RoleStore,
		StoreID:     req.StoreID,
		Permissions: perms,
	}, req.Password, createdBy)
}

// UpdateManager applies a partial update to a manager
func (s *Store) UpdateManager(id string, req models.UpdateManagerRequest) (*models.Manager, error) {
	var hash []byte
	if req.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.manager.Role != models.RoleStore {
		return nil, notFound("manager", id)
	}
	m := &a.manager
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Email != nil {
		m.Email = *req.Email
	}
	if req.Permissions != nil {
		m.Permissions = append([]string(nil), req.Permissions...)
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if hash != nil {
		a.hash = hash
	}
	now := s.now()
	m.UpdatedAt = &now
	out := *m
	return &out, nil
}

// SetManagerActive toggles a manager's active flag
func (s *Store) SetManagerActive(id string, active bool) (*models.Manager, error) {
	return s.UpdateManager(id, models.UpdateManagerRequest{IsActive: &active})
}

// DeleteManager removes a manager account
func (s *Store) DeleteManager(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok || a.manager.Role != models.RoleStore {
		return notFound("manager", id)
	}
	delete(s.accounts, id)
	for tok, uid := range s.refresh {
		if uid == id {
			delete(s.refresh, tok)
		}
	}
	return nil
}
