package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-services-api/internal/model"
)

const secret = "test-secret-key"

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("user-1", model.RoleTech, secret, time.Minute)
	require.NoError(t, err)

	c, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, model.RoleTech, c.Role)
	assert.WithinDuration(t, time.Now().Add(time.Minute), c.ExpiresAt.Time, 5*time.Second)
}

func TestDefaultTTL(t *testing.T) {
	tok, err := MakeToken("user-1", model.RoleHomeowner, secret, 0)
	require.NoError(t, err)
	c, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), c.ExpiresAt.Time, 5*time.Second)
}

func TestWrongSecret(t *testing.T) {
	tok, err := MakeToken("user-1", model.RoleAdmin, secret, time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(tok, "other-secret")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	c := Claims{
		UserID: "user-1",
		Role:   model.RoleHomeowner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(tok, secret)
	assert.Error(t, err)
}

func TestUnknownRoleRejected(t *testing.T) {
	c := Claims{
		UserID: "user-1",
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestNoneAlgRejected(t *testing.T) {
	c := Claims{UserID: "user-1", Role: model.RoleAdmin}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(tok, secret)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "correct horse"))
	assert.False(t, CheckPassword(h, "wrong"))
}

func TestRefreshTokenHash(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.Equal(t, hash, HashRefreshToken(raw))

	raw2, _, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}
