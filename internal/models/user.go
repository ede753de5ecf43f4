package models

import "time"

// UserRole is the role a back-office user signs in with
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStore UserRole = "store"
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStore
}

// AuthUser is the authenticated back-office user
type AuthUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        UserRole   `json:"role"`
	StoreID     string     `json:"storeId,omitempty"`
	Permissions []string   `json:"permissions"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// LoginRequest carries credentials for an admin or store login
type LoginRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// LoginResponse is returned by login and refresh
type LoginResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	User         *AuthUser `json:"user,omitempty"`
}

// RefreshTokenRequest asks the server for a new access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}
