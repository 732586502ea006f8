// Package auth verifies the bearer tokens issued by the external sign-in
// provider. Tokens are HS256 JWTs whose sub claim is the learner's UUID.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService validates access tokens.
type JWTService interface {
	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns the claims if the token is valid, or one of ErrInvalidToken,
	// ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidSubject.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims holds the validated token contents the API relies on.
type Claims struct {
	// UserID is the learner the token was issued for, parsed from sub.
	UserID uuid.UUID

	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
