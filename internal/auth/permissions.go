// Package auth holds the client-side view of back-office authentication:
// the permission catalogue, JWT decoding, the persisted token store and the
// route guard built on them.
package auth

import (
	"strings"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// Admin permissions
const (
	PermManageStores   = "admin:manage_stores"
	PermManageManagers = "admin:manage_managers"
	PermAdminAnalytics = "admin:view_analytics"
	PermSystemSettings = "admin:system_settings"
)

// Store permissions
const (
	PermManageSeats    = "store:manage_seats"
	PermManageMenu     = "store:manage_menu"
	PermViewOrders     = "store:view_orders"
	PermManageOrders   = "store:manage_orders"
	PermStoreAnalytics = "store:view_analytics"
)

// Common permissions
const (
	PermViewProfile = "common:view_profile"
	PermEditProfile = "common:edit_profile"
)

// rolePrefix marks capabilities implied by a role rather than granted
const rolePrefix = "role:"

var (
	adminAll = []string{
		PermManageStores, PermManageManagers, PermAdminAnalytics, PermSystemSettings,
		PermViewProfile, PermEditProfile,
	}
	storeAll = []string{
		PermManageSeats, PermManageMenu, PermViewOrders, PermManageOrders, PermStoreAnalytics,
		PermViewProfile, PermEditProfile,
	}
	storeReadonly = []string{PermViewOrders, PermStoreAnalytics, PermViewProfile}
)

var descriptions = map[string]string{
	PermManageStores:   "店舗管理",
	PermManageManagers: "管理者管理",
	PermAdminAnalytics: "分析データ閲覧",
	PermSystemSettings: "システム設定",
	PermManageSeats:    "座席管理",
	PermManageMenu:     "メニュー管理",
	PermViewOrders:     "注文閲覧",
	PermManageOrders:   "注文管理",
	PermStoreAnalytics: "分析データ閲覧",
	PermViewProfile:    "プロフィール閲覧",
	PermEditProfile:    "プロフィール編集",
}

// AdminAll returns every permission of a full administrator
func AdminAll() []string { return append([]string(nil), adminAll...) }

// StoreAll returns every permission of a full store manager
func StoreAll() []string { return append([]string(nil), storeAll...) }

// StoreReadonly returns the permissions of a read-only store account
func StoreReadonly() []string { return append([]string(nil), storeReadonly...) }

// ForRole returns the default permissions granted to role
func ForRole(role models.UserRole) []string {
	switch role {
	case models.RoleAdmin:
		return AdminAll()
	case models.RoleStore:
		return StoreAll()
	}
	return nil
}

// IsAdminPermission reports whether p is admin-only
func IsAdminPermission(p string) bool { return strings.HasPrefix(p, "admin:") }

// IsStorePermission reports whether p is store-only
func IsStorePermission(p string) bool { return strings.HasPrefix(p, "store:") }

// Description returns the display name of p, or p itself when unknown
func Description(p string) string {
	if d, ok := descriptions[p]; ok {
		return d
	}
	return p
}

// RoleCapability is the capability implied by holding role
func RoleCapability(role models.UserRole) string {
	return rolePrefix + string(role)
}

// Set is a set of capabilities. Role checks and permission checks are both
// membership tests on it.
type Set map[string]struct{}

// NewSet builds a set from caps
func NewSet(caps ...string) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Capabilities returns u's granted permissions plus its role capability
func Capabilities(u *models.AuthUser) Set {
	if u == nil {
		return Set{}
	}
	s := NewSet(u.Permissions...)
	if u.Role != "" {
		s[RoleCapability(u.Role)] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set
func (s Set) Has(c string) bool {
	_, ok := s[c]
	return ok
}

// HasAll reports whether every cap is in the set. It is true for no caps.
func (s Set) HasAll(caps ...string) bool {
	for _, c := range caps {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one cap is in the set. It is false for no caps.
func (s Set) HasAny(caps ...string) bool {
	for _, c := range caps {
		if s.Has(c) {
			return true
		}
	}
	return false
}
