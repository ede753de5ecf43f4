package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/howlrs/pos-qr-go/internal/api"
	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
)

// contextKey is a type for context keys
type contextKey string

// Context keys
const (
	ClaimsKey contextKey = "claims"
)

// Auth middleware for authenticating requests
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get the Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Unauthorized(w, "Authorization header required")
				return
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.Unauthorized(w, "Invalid Authorization header format")
				return
			}

			claims, err := auth.Verify(parts[1], secret)
			if err != nil {
				api.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware for checking user roles
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				api.Unauthorized(w, "Unauthorized")
				return
			}

			for _, allowed := range roles {
				if claims.Role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.Forbidden(w, "Forbidden")
		})
	}
}

// RequirePermission rejects requests whose token lacks every listed permission
func RequirePermission(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				api.Unauthorized(w, "Unauthorized")
				return
			}
			if !auth.Capabilities(claims.User()).HasAll(perms...) {
				api.Forbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims returns the verified token claims of the request
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

// GetUserID returns the authenticated user id
func GetUserID(ctx context.Context) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// GetUserRole returns the authenticated user's role
func GetUserRole(ctx context.Context) (models.UserRole, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return "", false
	}
	return claims.Role, true
}
