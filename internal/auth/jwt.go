// Package auth provides optional bearer-token authentication for the
// chartlab API.
//
// The service is single-tenant: there are no user accounts. The orchestration
// layer that calls /api/render holds a token signed with the shared secret
// (issued out of band, e.g. by an operator running a signing snippet with the
// same secret). When no secret is configured, auth is disabled entirely and
// the API is open to the local host.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify tokens; the same secret must be used for
// both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a token identifying the calling client.
// Signing algorithm is HS256: symmetric, fast, fine for a single-server
// deployment with one shared secret.
func (s *TokenService) Generate(clientID string, lifetime time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			Issuer:    "chartlab",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the client ID stored
// in the "sub" claim. Expired tokens and tokens signed with a different
// secret or algorithm are rejected.
func (s *TokenService) Validate(tokenString string) (string, error) {
	var c claims

	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		// Pinning the signing method prevents algorithm-substitution
		// tricks ("alg":"none" or an RSA public key used as HMAC secret).
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parsing token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("auth: invalid token")
	}

	return c.Subject, nil
}
