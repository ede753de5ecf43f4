package models

import "time"

// Manager is a store-role back-office account managed by an admin
type Manager struct {
	AuthUser
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedBy   string     `json:"createdBy"`
}

// CreateManagerRequest is used for manager creation
type CreateManagerRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	StoreID     string   `json:"storeId,omitempty"`
	Permissions []string `json:"permissions"`
}

// UpdateManagerRequest is used for partial manager updates
type UpdateManagerRequest struct {
	Name        *string  `json:"name,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Password    *string  `json:"password,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// ManagerResponse wraps a single manager
type ManagerResponse struct {
	Manager Manager `json:"manager"`
}

// ManagersListResponse is a page of managers
type ManagersListResponse struct {
	Managers []Manager `json:"managers"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// StatusRequest toggles the active flag of a store or manager
type StatusRequest struct {
	IsActive bool `json:"isActive"`
}

// SeatStatusRequest changes the floor status of a seat
type SeatStatusRequest struct {
	Status SeatStatus `json:"status"`
}

// ListParams are the common query parameters of admin list endpoints
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	IsActive *bool
	Status   string
}
