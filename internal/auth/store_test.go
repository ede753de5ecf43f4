package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/storage"
)

func TestStoreLoginPersists(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	tok := mintToken(t)

	require.NoError(t, s.Login(ctx, tok, "refresh-1", nil))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, tok, s.Token())
	assert.Equal(t, "refresh-1", s.RefreshToken())
	assert.True(t, s.IsAdmin())
	assert.False(t, s.IsStore())
	assert.True(t, s.HasPermission(PermManageStores))

	raw, err := mem.Get(ctx, StorageKey)
	require.NoError(t, err)
	var st State
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	assert.Equal(t, tok, st.Token)
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "u-1", st.User.ID)
	assert.True(t, st.TokenExpiresAt.Equal(testNow.Add(time.Hour)))

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))
	assert.Contains(t, fields, "tokenExpiresAt")
}

func TestStoreRehydrateHonoursRecordedExpiry(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	raw, err := json.Marshal(State{
		User:            &models.AuthUser{ID: "u-1", Email: "hanako@example.com", Role: models.RoleAdmin},
		Token:           mintToken(t),
		IsAuthenticated: true,
		TokenExpiresAt:  testNow.Add(-time.Second),
	})
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, StorageKey, string(raw)))

	s := NewStore(mem, quietLogger())
	s.SetClock(func() time.Time { return testNow })
	require.NoError(t, s.Rehydrate(ctx))

	assert.False(t, s.IsAuthenticated())
	_, err = mem.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreLoginRejectsInvalidToken(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Login(context.Background(), mintToken(t, expiresIn(-time.Minute)), "", nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, s.IsAuthenticated())
}

func TestStoreLogoutClears(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	login(t, s, mintToken(t))
	gen := s.Generation()

	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Greater(t, s.Generation(), gen)
	_, err := mem.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreRehydrate(t *testing.T) {
	ctx := context.Background()
	tok := mintToken(t)

	first, mem := newTestStore(t)
	login(t, first, tok)

	second := NewStore(mem, quietLogger())
	second.SetClock(func() time.Time { return testNow })
	require.NoError(t, second.Rehydrate(ctx))

	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, tok, second.Token())
	assert.Equal(t, "Hanako", second.User().Name)
}

func TestStoreRehydrateExpiredLogsOut(t *testing.T) {
	ctx := context.Background()
	first, mem := newTestStore(t)
	login(t, first, mintToken(t, expiresIn(time.Minute)))

	later := NewStore(mem, quietLogger())
	later.SetClock(func() time.Time { return testNow.Add(time.Hour) })
	require.NoError(t, later.Rehydrate(ctx))

	assert.False(t, later.IsAuthenticated())
	_, err := mem.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "expired state is purged")
}

func TestStoreRehydrateCorruptState(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, StorageKey, "{not json"))

	s := NewStore(mem, quietLogger())
	require.NoError(t, s.Rehydrate(ctx))
	assert.False(t, s.IsAuthenticated())
	_, err := mem.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreRehydrateEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Rehydrate(context.Background()))
	assert.False(t, s.IsAuthenticated())
}

func TestStoreSetTokenKeepsUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	user := &models.AuthUser{ID: "u-1", Name: "Custom Name", Role: models.RoleAdmin, Email: "hanako@example.com"}
	require.NoError(t, s.Login(ctx, mintToken(t), "r1", user))

	next := mintToken(t, expiresIn(2*time.Hour))
	require.NoError(t, s.SetToken(ctx, next, ""))

	assert.Equal(t, next, s.Token())
	assert.Equal(t, "r1", s.RefreshToken(), "empty refresh token keeps the old one")
	assert.Equal(t, "Custom Name", s.User().Name)
	assert.True(t, s.State().TokenExpiresAt.Equal(testNow.Add(2*time.Hour)))
}

func TestStoreUserIsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	login(t, s, mintToken(t))

	u := s.User()
	u.Permissions[0] = "mutated"
	assert.True(t, s.HasPermission(PermManageStores))
}

func TestClearOnUnauthorized(t *testing.T) {
	s, _ := newTestStore(t)
	login(t, s, mintToken(t))

	s.ClearOnUnauthorized()
	assert.False(t, s.IsAuthenticated())
}
