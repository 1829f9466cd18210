package utils // package utils provides helpers for token signing and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SignHS256 signs claims with the given secret using HMAC-SHA256.
func SignHS256(secret []byte, claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseHS256 parses raw into claims and verifies signature and expiry.
// Tokens signed with any algorithm other than HS256 are rejected.
func ParseHS256(raw string, secret []byte, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

// HashToken returns the SHA-256 hex digest of a token. Only this digest is
// persisted so a leaked table cannot be replayed against /auth/refresh.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
