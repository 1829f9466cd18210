package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "s3cret!"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestSignAndParse(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	signed, err := SignHS256(secret, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	require.NoError(t, err)

	var got jwt.RegisteredClaims
	require.NoError(t, ParseHS256(signed, secret, &got))
	assert.Equal(t, "u1", got.Subject)

	var other jwt.RegisteredClaims
	assert.Error(t, ParseHS256(signed, []byte("another-secret-another-secret!!"), &other))
}

func TestParse_RequiresExpiry(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	signed, err := SignHS256(secret, jwt.RegisteredClaims{Subject: "u1"})
	require.NoError(t, err)

	var got jwt.RegisteredClaims
	err = ParseHS256(signed, secret, &got)
	assert.True(t, errors.Is(err, jwt.ErrTokenRequiredClaimMissing))
}

func TestHashToken_Stable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.Len(t, HashToken("abc"), 64)
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
