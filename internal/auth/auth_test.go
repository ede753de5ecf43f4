package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/storage"
)

const testSecret = "test-secret"

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetLevel(log.PanicLevel)
	return l
}

type tokenOpt func(*Claims)

func expiresIn(d time.Duration) tokenOpt {
	return func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(testNow.Add(d)) }
}

func withRole(r models.UserRole) tokenOpt {
	return func(c *Claims) { c.Role = r }
}

func withPerms(p ...string) tokenOpt {
	return func(c *Claims) { c.Permissions = p }
}

func withoutEmail() tokenOpt {
	return func(c *Claims) { c.Email = "" }
}

func mintToken(t *testing.T, opts ...tokenOpt) string {
	t.Helper()
	c := &Claims{
		Email:       "hanako@example.com",
		Name:        "Hanako",
		Role:        models.RoleAdmin,
		Permissions: AdminAll(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}
	for _, o := range opts {
		o(c)
	}
	tok, err := Issue(c, testSecret)
	require.NoError(t, err)
	return tok
}

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	s := NewStore(mem, quietLogger())
	s.SetClock(func() time.Time { return testNow })
	return s, mem
}

func login(t *testing.T, s *Store, token string) {
	t.Helper()
	require.NoError(t, s.Login(context.Background(), token, "", nil))
}
