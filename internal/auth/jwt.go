// Package auth issues and checks login tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim on every token.
const Issuer = "stockroom"

// CookieName is the cookie carrying the token for browser sessions.
const CookieName = "token"

// TokenExpiry is the default token lifetime.
const TokenExpiry = 12 * time.Hour

// Claims identify the logged-in user.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"sub_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken wraps every validation failure.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs a token for the user. A zero ttl uses TokenExpiry.
func GenerateToken(secret string, ttl time.Duration, userID int64, username, role string) (string, *Claims, error) {
	if ttl <= 0 {
		ttl = TokenExpiry
	}
	now := time.Now()

	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken checks signature, expiry and issuer and returns the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
