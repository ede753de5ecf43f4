package models

import "time"

// StoreFeature is an optional capability enabled for a store
type StoreFeature string

const (
	FeatureQROrdering         StoreFeature = "qr_ordering"
	FeatureTableService       StoreFeature = "table_service"
	FeatureTakeaway           StoreFeature = "takeaway"
	FeatureDelivery           StoreFeature = "delivery"
	FeaturePaymentIntegration StoreFeature = "payment_integration"
)

// StoreSettings holds per-store configuration
type StoreSettings struct {
	Timezone     string         `json:"timezone"`
	Currency     string         `json:"currency"`
	Language     string         `json:"language"`
	OrderTimeout int            `json:"orderTimeout"` // minutes
	MaxSeats     int            `json:"maxSeats"`
	Features     []StoreFeature `json:"features"`
}

// Store represents a restaurant in the admin console
type Store struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Address     string        `json:"address"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email"`
	IsActive    bool          `json:"isActive"`
	Settings    StoreSettings `json:"settings"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// StoreStats summarizes a store's sales
type StoreStats struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      int64   `json:"totalRevenue"`
	ActiveSeats       int     `json:"activeSeats"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	OrdersToday       int     `json:"ordersToday"`
	RevenueToday      int64   `json:"revenueToday"`
}

// CreateStoreRequest is used for store creation
type CreateStoreRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Address     string         `json:"address"`
	Phone       string         `json:"phone"`
	Email       string         `json:"email"`
	Settings    *StoreSettings `json:"settings,omitempty"`
}

// UpdateStoreRequest is used for partial store updates
type UpdateStoreRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Address     *string        `json:"address,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Email       *string        `json:"email,omitempty"`
	IsActive    *bool          `json:"isActive,omitempty"`
	Settings    *StoreSettings `json:"settings,omitempty"`
}

// StoreResponse wraps a single store
type StoreResponse struct {
	Store Store `json:"store"`
}

// StoresListResponse is a page of stores
type StoresListResponse struct {
	Stores []Store `json:"stores"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// StoreStatsResponse wraps store statistics
type StoreStatsResponse struct {
	Stats StoreStats `json:"stats"`
}
