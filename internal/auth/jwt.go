package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/howlrs/pos-qr-go/internal/models"
)

// ErrInvalidToken is returned when a token is malformed, expired or missing
// required claims
var ErrInvalidToken = errors.New("invalid or expired token")

// DefaultExpiryWindow is how early a token counts as expiring soon
const DefaultExpiryWindow = 5 * time.Minute

// Claims is the JWT payload issued by the ordering API
type Claims struct {
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Role        models.UserRole `json:"role"`
	StoreID     string          `json:"storeId,omitempty"`
	Permissions []string        `json:"permissions"`
	jwt.RegisteredClaims
}

// User converts the claims to the authenticated user they describe
func (c *Claims) User() *models.AuthUser {
	return &models.AuthUser{
		ID:          c.Subject,
		Email:       c.Email,
		Name:        c.Name,
		Role:        c.Role,
		StoreID:     c.StoreID,
		Permissions: append([]string(nil), c.Permissions...),
	}
}

// Decode reads the claims of token without verifying its signature. The
// server verifies; the client only needs the payload.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// IsValid reports whether token decodes, carries sub, email and role, and
// has not expired at now
func IsValid(token string, now time.Time) bool {
	claims, err := Decode(token)
	if err != nil {
		return false
	}
	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.After(now)
}

// ExtractUser returns the user described by token
func ExtractUser(token string) (*models.AuthUser, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.User(), nil
}

// ExpiresAt returns the expiry of token
func ExpiresAt(token string) (time.Time, error) {
	claims, err := Decode(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	return claims.ExpiresAt.Time, nil
}

// TimeUntilExpiration returns how long token stays valid after now, never negative
func TimeUntilExpiration(token string, now time.Time) (time.Duration, error) {
	exp, err := ExpiresAt(token)
	if err != nil {
		return 0, err
	}
	if d := exp.Sub(now); d > 0 {
		return d, nil
	}
	return 0, nil
}

// WillExpireSoon reports whether token expires within window of now. An
// undecodable token always counts as expiring.
func WillExpireSoon(token string, now time.Time, window time.Duration) bool {
	d, err := TimeUntilExpiration(token, now)
	if err != nil {
		return true
	}
	return d <= window
}

// Issue signs claims with HS256
func Issue(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Verify validates the signature and expiry of token and returns its claims
func Verify(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
