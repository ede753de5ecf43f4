package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/models"
)

func TestDecodeAndExtractUser(t *testing.T) {
	tok := mintToken(t, withRole(models.RoleStore), withPerms(PermViewOrders), func(c *Claims) { c.StoreID = "st-1" })

	u, err := ExtractUser(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "hanako@example.com", u.Email)
	assert.Equal(t, "Hanako", u.Name)
	assert.Equal(t, models.RoleStore, u.Role)
	assert.Equal(t, "st-1", u.StoreID)
	assert.Equal(t, []string{PermViewOrders}, u.Permissions)
}

func TestDecodeIgnoresSignature(t *testing.T) {
	// Verify checks expiry against the wall clock.
	tok := mintToken(t, func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour)) })
	_, err := Decode(tok)
	require.NoError(t, err)

	_, err = Verify(tok, "other-secret")
	assert.Error(t, err)

	claims, err := Verify(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "valid", token: mintToken(t), want: true},
		{name: "expired", token: mintToken(t, expiresIn(-time.Second))},
		{name: "missing email", token: mintToken(t, withoutEmail())},
		{name: "missing role", token: mintToken(t, withRole(""))},
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.token, testNow))
		})
	}
}

func TestExpiry(t *testing.T) {
	tok := mintToken(t, expiresIn(3*time.Minute))

	exp, err := ExpiresAt(tok)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(3*time.Minute).Unix(), exp.Unix())

	d, err := TimeUntilExpiration(tok, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, d)

	d, err = TimeUntilExpiration(tok, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, d, "never negative")

	assert.True(t, WillExpireSoon(tok, testNow, DefaultExpiryWindow))
	assert.False(t, WillExpireSoon(tok, testNow, time.Minute))
	assert.True(t, WillExpireSoon("garbage", testNow, time.Minute))
}
