package memstore

import (
	"fmt"
	"time"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// Seed ids and credentials for local development and tests
const (
	SeedStoreID        = "store-1"
	SeedSeatID         = "seat-1"
	SeedSessionID      = "S1"
	SeedExpiredSession = "S-EXPIRED"
	SeedAdminID        = "admin-1"
	SeedAdminEmail     = "admin@example.com"
	SeedAdminPassword  = "admin123"
	SeedManagerID      = "manager-1"
	SeedManagerEmail   = "store@example.com"
	SeedManagerPass    = "store123"
)

// NewSeeded creates a store with one restaurant, its menu, a seat with an
// active session S1, an expired session S-EXPIRED, and an admin and a store
// account
func NewSeeded(opts Options) (*Store, error) {
	s := New(opts)
	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return s, nil
}

func ptr[T any](v T) *T { return &v }

func (s *Store) seed() error {
	now := s.now()

	store := &models.Store{
		ID:        SeedStoreID,
		Name:      "QRダイニング 渋谷店",
		Address:   "東京都渋谷区1-2-3",
		Phone:     "03-1234-5678",
		Email:     "shibuya@example.com",
		IsActive:  true,
		Settings:  defaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.stores[store.ID] = store

	s.menus[store.ID] = &models.Menu{
		Categories: []models.MenuCategory{
			{ID: "C2", Name: "ドリンク", DisplayOrder: 2, IsActive: true},
			{ID: "C1", Name: "メイン", DisplayOrder: 1, IsActive: true},
			{ID: "C3", Name: "季節限定", DisplayOrder: 3, IsActive: false},
		},
		Items: []models.MenuItem{
			{
				ID: "M1", Name: "唐揚げ定食", Description: "ジューシーな唐揚げとご飯、味噌汁",
				Price: 1000, CategoryID: "C1", IsAvailable: true,
				Allergens:     []string{"小麦", "卵"},
				NutritionInfo: &models.NutritionInfo{Calories: ptr(850.0)},
			},
			{
				ID: "M2", Name: "焼き魚定食", Description: "本日の焼き魚",
				Price: 1500, CategoryID: "C1", IsAvailable: true,
			},
			{
				ID: "M3", Name: "特上寿司", Description: "本日完売",
				Price: 3000, CategoryID: "C1", IsAvailable: false,
			},
			{
				ID: "M4", Name: "緑茶", Description: "温かい緑茶",
				Price: 500, CategoryID: "C2", IsAvailable: true,
			},
		},
	}

	seat := &models.Seat{
		ID:        SeedSeatID,
		StoreID:   store.ID,
		Number:    "A1",
		Name:      "テーブル A1",
		Capacity:  4,
		Status:    models.SeatStatusOccupied,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.seats[seat.ID] = seat
	if _, err := s.issueQRLocked(seat, SeedSessionID); err != nil {
		return err
	}

	expired := *s.sessions[SeedSessionID]
	expired.ID = SeedExpiredSession
	expired.CreatedAt = now.Add(-3 * time.Hour)
	expired.ExpiresAt = now.Add(-time.Hour)
	expired.Status = models.SessionStatusExpired
	s.sessions[expired.ID] = &expired

	if _, err := s.AddAccount(models.AuthUser{
		ID:          SeedAdminID,
		Email:       SeedAdminEmail,
		Name:        "システム管理者",
		Role:        models.RoleAdmin,
		Permissions: auth.AdminAll(),
	}, SeedAdminPassword, ""); err != nil {
		return err
	}
	if _, err := s.AddAccount(models.AuthUser{
		ID:          SeedManagerID,
		Email:       SeedManagerEmail,
		Name:        "渋谷店 店長",
		Role:        models.RoleStore,
		StoreID:     store.ID,
		Permissions: auth.StoreAll(),
	}, SeedManagerPass, SeedAdminID); err != nil {
		return err
	}
	return nil
}
