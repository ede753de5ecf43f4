package service

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/cache"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/storage"
)

func issue(t *testing.T, role models.UserRole, expires time.Time) string {
	t.Helper()
	token, err := auth.Issue(&auth.Claims{
		Email: "someone@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}, testSecret)
	require.NoError(t, err)
	return token
}

// loginAPI answers every POST with a fixed login response
type loginAPI struct {
	resp models.LoginResponse
}

func (f *loginAPI) Get(context.Context, string, url.Values, any) error { return nil }
func (f *loginAPI) Put(context.Context, string, any, any) error        { return nil }
func (f *loginAPI) Patch(context.Context, string, any, any) error      { return nil }
func (f *loginAPI) Delete(context.Context, string, any) error          { return nil }
func (f *loginAPI) Post(_ context.Context, _ string, _, out any) error {
	if resp, ok := out.(*models.LoginResponse); ok {
		*resp = f.resp
	}
	return nil
}

func TestAdminLogin(t *testing.T) {
	b := newBackend(t)
	b.cache.Set(cache.Key{Resource: ResourceStores}, "leftover")

	svc := NewAuthService(b.api, b.tokens, b.cache, 0, quietLogger())
	user, err := svc.AdminLogin(context.Background(), memstore.SeedAdminEmail, memstore.SeedAdminPassword)
	require.NoError(t, err)

	assert.Equal(t, memstore.SeedAdminID, user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, b.tokens.IsAuthenticated())
	assert.True(t, b.tokens.IsAdmin())
	assert.True(t, b.tokens.HasPermission(auth.PermManageStores))
	assert.NotEmpty(t, b.tokens.RefreshToken())
	assert.Equal(t, 1, b.calls("POST", client.AdminLoginPath))

	_, cached := b.cache.Peek(cache.Key{Resource: ResourceStores})
	assert.False(t, cached, "login clears the previous user's cache")
}

func TestLoginWrongPassword(t *testing.T) {
	b := newBackend(t)
	svc := NewAuthService(b.api, b.tokens, b.cache, 0, quietLogger())

	_, err := svc.StoreLogin(context.Background(), memstore.SeedManagerEmail, "nope")
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
	assert.False(t, b.tokens.IsAuthenticated())
}

func TestLoginRejectsOtherRole(t *testing.T) {
	api := &loginAPI{resp: models.LoginResponse{Token: issue(t, models.RoleStore, time.Now().Add(time.Hour))}}
	tokens := auth.NewStore(storage.NewMemory(), quietLogger())
	svc := NewAuthService(api, tokens, cache.New(), 0, quietLogger())

	_, err := svc.AdminLogin(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrRoleMismatch)
	assert.False(t, tokens.IsAuthenticated())
}

func TestLoginRejectsExpiredToken(t *testing.T) {
	api := &loginAPI{resp: models.LoginResponse{Token: issue(t, models.RoleAdmin, time.Now().Add(-time.Minute))}}
	tokens := auth.NewStore(storage.NewMemory(), quietLogger())
	svc := NewAuthService(api, tokens, cache.New(), 0, quietLogger())

	_, err := svc.AdminLogin(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLoginUnknownRole(t *testing.T) {
	b := newBackend(t)
	svc := NewAuthService(b.api, b.tokens, b.cache, 0, quietLogger())
	_, err := svc.Login(context.Background(), models.UserRole("guest"), "a", "b")
	assert.Error(t, err)
	assert.Zero(t, b.total())
}

func TestLogoutClearsLocalState(t *testing.T) {
	b := newBackend(t)
	svc := b.login(t, models.RoleStore, memstore.SeedManagerEmail, memstore.SeedManagerPass)
	b.cache.Set(cache.Key{Resource: ResourceSeats}, "page")

	require.NoError(t, svc.Logout(context.Background()))
	assert.False(t, b.tokens.IsAuthenticated())
	assert.Empty(t, b.tokens.Token())
	assert.Equal(t, 1, b.calls("POST", client.LogoutPath))
	_, cached := b.cache.Peek(cache.Key{Resource: ResourceSeats})
	assert.False(t, cached)

	// Nothing to tell the server a second time.
	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, 1, b.calls("POST", client.LogoutPath))
}

func TestRefreshRotatesToken(t *testing.T) {
	b := newBackend(t)
	svc := b.login(t, models.RoleAdmin, memstore.SeedAdminEmail, memstore.SeedAdminPassword)
	oldRefresh := b.tokens.RefreshToken()

	require.NoError(t, svc.Refresh(context.Background()))
	assert.True(t, b.tokens.IsAuthenticated())
	assert.NotEqual(t, oldRefresh, b.tokens.RefreshToken())

	// The used refresh token is gone server side.
	st := b.tokens.State()
	require.NoError(t, b.tokens.Login(context.Background(), st.Token, oldRefresh, st.User))

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, b.tokens.IsAuthenticated(), "a failed refresh logs out")
}

func TestCheckTokenExpiration(t *testing.T) {
	b := newBackend(t)
	svc := b.login(t, models.RoleAdmin, memstore.SeedAdminEmail, memstore.SeedAdminPassword)

	refreshed, err := svc.CheckTokenExpiration(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Zero(t, b.calls("POST", client.RefreshPath))

	exp, err := auth.ExpiresAt(b.tokens.Token())
	require.NoError(t, err)
	b.tokens.SetClock(func() time.Time { return exp.Add(-time.Minute) })

	refreshed, err = svc.CheckTokenExpiration(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 1, b.calls("POST", client.RefreshPath))
	assert.True(t, b.tokens.IsAuthenticated())
}

func TestCheckTokenExpirationSignedOut(t *testing.T) {
	b := newBackend(t)
	svc := NewAuthService(b.api, b.tokens, b.cache, 0, quietLogger())
	refreshed, err := svc.CheckTokenExpiration(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Zero(t, b.total())
}

func TestExpiredStoredTokenNeverReachesServer(t *testing.T) {
	b := newBackend(t)

	mem := storage.NewMemory()
	raw, err := json.Marshal(auth.State{
		User:            &models.AuthUser{ID: "u1", Email: "someone@example.com", Role: models.RoleAdmin},
		Token:           issue(t, models.RoleAdmin, time.Now().Add(-time.Hour)),
		IsAuthenticated: true,
	})
	require.NoError(t, err)
	require.NoError(t, mem.Set(context.Background(), auth.StorageKey, string(raw)))

	tokens := auth.NewStore(mem, quietLogger())
	require.NoError(t, tokens.Rehydrate(context.Background()))
	assert.False(t, tokens.IsAuthenticated())

	_, err = mem.Get(context.Background(), auth.StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	d := auth.NewGuard(tokens, auth.AdminOnly(auth.PermManageStores)).Check(context.Background())
	assert.Equal(t, auth.StateUnauthenticated, d.State)
	assert.Equal(t, auth.AdminLoginRoute, d.RedirectTo)
	assert.Zero(t, b.total())
}
