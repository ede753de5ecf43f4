package client

import (
	"net/url"
	"strconv"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// Fixed endpoints
const (
	AdminLoginPath    = "/auth/admin/login"
	StoreLoginPath    = "/auth/store/login"
	RefreshPath       = "/auth/refresh"
	LogoutPath        = "/auth/logout"
	HealthPath        = "/health"
	AdminStoresPath   = "/admin/stores"
	AdminManagersPath = "/admin/managers"
	StoreSeatsPath    = "/store/seats"
	StoreOrdersPath   = "/store/orders"
)

// LoginPath returns the login endpoint for role
func LoginPath(role models.UserRole) string {
	if role == models.RoleAdmin {
		return AdminLoginPath
	}
	return StoreLoginPath
}

func join(base string, parts ...string) string {
	p := base
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// SessionPath is the session bootstrap endpoint
func SessionPath(sessionID string) string {
	return join("/order/session", sessionID)
}

// MenuPath is the session menu endpoint
func MenuPath(sessionID string) string {
	return SessionPath(sessionID) + "/menu"
}

// CartPath is the session cart endpoint
func CartPath(sessionID string) string {
	return SessionPath(sessionID) + "/cart"
}

// CartItemPath addresses a single cart line
func CartItemPath(sessionID, itemID string) string {
	return join(CartPath(sessionID)+"/items", itemID)
}

// PlaceOrderPath is the order placement endpoint
func PlaceOrderPath(sessionID string) string {
	return SessionPath(sessionID) + "/place"
}

// HistoryPath is the session order history endpoint
func HistoryPath(sessionID string) string {
	return SessionPath(sessionID) + "/history"
}

// StatusFeedPath is the websocket feed of order updates for a session
func StatusFeedPath(sessionID string) string {
	return join("/ws/order", sessionID)
}

// StorePath addresses a single store
func StorePath(storeID string) string {
	return join(AdminStoresPath, storeID)
}

// StoreStatusPath toggles a store's active flag
func StoreStatusPath(storeID string) string {
	return StorePath(storeID) + "/status"
}

// StoreStatsPath returns a store's statistics
func StoreStatsPath(storeID string) string {
	return StorePath(storeID) + "/stats"
}

// ManagerPath addresses a single manager
func ManagerPath(managerID string) string {
	return join(AdminManagersPath, managerID)
}

// ManagerStatusPath toggles a manager's active flag
func ManagerStatusPath(managerID string) string {
	return ManagerPath(managerID) + "/status"
}

// SeatPath addresses a single seat
func SeatPath(seatID string) string {
	return join(StoreSeatsPath, seatID)
}

// SeatStatusPath changes a seat's floor status
func SeatStatusPath(seatID string) string {
	return SeatPath(seatID) + "/status"
}

// SeatQRPath returns a seat's QR code
func SeatQRPath(seatID string) string {
	return SeatPath(seatID) + "/qr"
}

// SeatQRRegeneratePath issues a new QR code for a seat
func SeatQRRegeneratePath(seatID string) string {
	return SeatQRPath(seatID) + "/regenerate"
}

// OrderStatusPath lets staff advance an order
func OrderStatusPath(orderID string) string {
	return join(StoreOrdersPath, orderID) + "/status"
}

// ListQuery encodes admin list parameters, omitting zero values
func ListQuery(p models.ListParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.IsActive != nil {
		q.Set("isActive", strconv.FormatBool(*p.IsActive))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	return q
}
