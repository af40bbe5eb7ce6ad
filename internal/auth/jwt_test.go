package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewTokenService("secret", time.Hour)

	token, err := s.GenerateToken("admin-1")
	require.NoError(t, err)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", id)
}

func TestValidateTokenRejects(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	token, err := s.GenerateToken("admin-1")
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	expired := NewTokenService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.GenerateToken("admin-1")
	require.NoError(t, err)
	_, err = s.ValidateToken(old)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(unsigned)
	assert.Error(t, err, "alg none")

	_, err = s.ValidateToken("garbage")
	assert.Error(t, err)
}
