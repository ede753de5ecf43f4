package service

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/models"
)

func adminBackend(t *testing.T) *backend {
	t.Helper()
	b := newBackend(t)
	b.login(t, models.RoleAdmin, memstore.SeedAdminEmail, memstore.SeedAdminPassword)
	return b
}

func storeBackend(t *testing.T) *backend {
	t.Helper()
	b := newBackend(t)
	b.login(t, models.RoleStore, memstore.SeedManagerEmail, memstore.SeedManagerPass)
	return b
}

func TestStoreListIsCachedUntilWrite(t *testing.T) {
	b := adminBackend(t)
	svc := NewStoreService(b.api, b.cache, DefaultPolicies(), quietLogger())
	ctx := context.Background()

	page, err := svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Stores, 1)
	assert.Equal(t, memstore.SeedStoreID, page.Stores[0].ID)

	_, err = svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.calls("GET", client.AdminStoresPath))

	created, err := svc.Create(ctx, models.CreateStoreRequest{Name: "Ginza", Address: "Chuo", Email: "ginza@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	page, err = svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, b.calls("GET", client.AdminStoresPath), "create invalidates every page")
	assert.Equal(t, 2, page.Total)

	// The created store is served from the cache.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(created, got))
	assert.Zero(t, b.calls("GET", client.StorePath(created.ID)))
}

func TestStoreListPagesAreCachedApart(t *testing.T) {
	b := adminBackend(t)
	svc := NewStoreService(b.api, b.cache, DefaultPolicies(), quietLogger())
	ctx := context.Background()

	active := true
	_, err := svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	_, err = svc.List(ctx, models.ListParams{IsActive: &active})
	require.NoError(t, err)
	_, err = svc.List(ctx, models.ListParams{Search: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, 3, b.calls("GET", client.AdminStoresPath))
}

func TestStoreUpdateStatusAndDelete(t *testing.T) {
	b := adminBackend(t)
	svc := NewStoreService(b.api, b.cache, DefaultPolicies(), quietLogger())
	ctx := context.Background()

	name := "渋谷本店"
	updated, err := svc.Update(ctx, memstore.SeedStoreID, models.UpdateStoreRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	off, err := svc.UpdateStatus(ctx, memstore.SeedStoreID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	got, err := svc.Get(ctx, memstore.SeedStoreID)
	require.NoError(t, err)
	if diff := cmp.Diff(off, got, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("cached store differs (-want +got):\n%s", diff)
	}

	stats, err := svc.Stats(ctx, memstore.SeedStoreID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.ActiveSeats, 0)

	require.NoError(t, svc.Delete(ctx, memstore.SeedStoreID))
	_, err = svc.Get(ctx, memstore.SeedStoreID)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, 1, b.calls("GET", client.StorePath(memstore.SeedStoreID)), "delete removes the cached detail")
}

func TestStoreCreateValidationError(t *testing.T) {
	b := adminBackend(t)
	svc := NewStoreService(b.api, b.cache, DefaultPolicies(), quietLogger())

	_, err := svc.Create(context.Background(), models.CreateStoreRequest{})
	require.Error(t, err)
	assert.Equal(t, 400, client.StatusOf(err))
}

func TestStoreServiceRequiresAdmin(t *testing.T) {
	b := storeBackend(t)
	svc := NewStoreService(b.api, b.cache, DefaultPolicies(), quietLogger())

	_, err := svc.List(context.Background(), models.ListParams{})
	require.Error(t, err)
	assert.Equal(t, 403, client.StatusOf(err))
	assert.True(t, b.tokens.IsAuthenticated(), "403 keeps the session")
}

func TestManagerLifecycle(t *testing.T) {
	b := adminBackend(t)
	svc := NewManagerService(b.api, b.cache, DefaultPolicies(), quietLogger())
	ctx := context.Background()

	m, err := svc.Create(ctx, models.CreateManagerRequest{
		Name:        "Ginza manager",
		Email:       "ginza@example.com",
		Password:    "secret123",
		StoreID:     memstore.SeedStoreID,
		Permissions: auth.StoreReadonly(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStore, m.Role)
	assert.Equal(t, memstore.SeedAdminID, m.CreatedBy)
	assert.True(t, m.IsActive)

	page, err := svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	name := "Ginza lead"
	m, err = svc.Update(ctx, m.ID, models.UpdateManagerRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, m.Name)

	m, err = svc.UpdateStatus(ctx, m.ID, false)
	require.NoError(t, err)
	assert.False(t, m.IsActive)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)
	assert.Zero(t, b.calls("GET", client.ManagerPath(m.ID)))

	// The new account can sign in only while active.
	_, err = b.store.Login(models.LoginRequest{Email: "ginza@example.com", Password: "secret123", Role: models.RoleStore})
	assert.Equal(t, 403, memstore.StatusOf(err))

	require.NoError(t, svc.Delete(ctx, m.ID))
	page, err = svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSeatLifecycle(t *testing.T) {
	b := storeBackend(t)
	svc := NewSeatService(b.api, b.cache, DefaultPolicies(), quietLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateSeatRequest{Number: "B1", Capacity: 0})
	assert.Error(t, err)
	assert.Zero(t, b.calls("POST", client.StoreSeatsPath), "invalid capacity is rejected locally")

	seat, err := svc.Create(ctx, models.CreateSeatRequest{Number: "B1", Name: "Table B1", Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, memstore.SeedStoreID, seat.StoreID)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)

	page, err := svc.List(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	seat, err = svc.UpdateStatus(ctx, seat.ID, models.SeatStatusReserved)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusReserved, seat.Status)

	_, err = svc.UpdateStatus(ctx, seat.ID, models.SeatStatus("broken"))
	assert.Error(t, err)

	reserved, err := svc.List(ctx, models.ListParams{Status: string(models.SeatStatusReserved)})
	require.NoError(t, err)
	require.Len(t, reserved.Seats, 1)
	assert.Equal(t, "B1", reserved.Seats[0].Number)

	require.NoError(t, svc.Delete(ctx, seat.ID))
	_, err = svc.Get(ctx, seat.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestSeatQRRegenerateReplacesCachedCode(t *testing.T) {
	b := storeBackend(t)
	svc := NewSeatService(b.api, b.cache, DefaultPolicies(), quietLogger())
	ctx := context.Background()

	qr, err := svc.QR(ctx, memstore.SeedSeatID)
	require.NoError(t, err)
	first, err := SeatQRContent(qr)
	require.NoError(t, err)
	assert.Contains(t, first, memstore.SeedSessionID)

	again, err := svc.QR(ctx, memstore.SeedSeatID)
	require.NoError(t, err)
	assert.Equal(t, qr, again)
	assert.Equal(t, 1, b.calls("GET", client.SeatQRPath(memstore.SeedSeatID)))

	fresh, err := svc.RegenerateQR(ctx, memstore.SeedSeatID)
	require.NoError(t, err)
	second, err := SeatQRContent(fresh)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	cached, err := svc.QR(ctx, memstore.SeedSeatID)
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)
	assert.Equal(t, 1, b.calls("GET", client.SeatQRPath(memstore.SeedSeatID)))

	// The old session no longer accepts orders.
	old, err := b.store.Session(memstore.SeedSessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, old.Session.Status)
}

func TestSeatServiceRequiresStoreRole(t *testing.T) {
	b := adminBackend(t)
	svc := NewSeatService(b.api, b.cache, DefaultPolicies(), quietLogger())
	_, err := svc.List(context.Background(), models.ListParams{})
	assert.Equal(t, 403, client.StatusOf(err))
}
