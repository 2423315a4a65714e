// Package auth is the local identity provider: account registration, login
// and JWT session tokens. Identity ids are issued as "local:<uuid>", the
// shape the topic grammar expects as a delivery-topic suffix.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

type Claims struct {
	IdentityID string `json:"identity_id"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

// NewIdentityID issues a fresh identity id.
func NewIdentityID() string {
	return "local:" + uuid.NewString()
}

// GenerateToken signs a session token for an identity.
func GenerateToken(identityID, username, secret string) (string, error) {
	claims := Claims{
		IdentityID: identityID,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a session token.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
