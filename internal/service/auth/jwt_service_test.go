package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newTestService(t *testing.T, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	impl := svc.(*hmacJWTService)
	impl.timeFunc = func() time.Time { return now }
	return impl
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)
	userID := uuid.New()

	registered := func(sub string, issued, expires time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        "token-1",
		}
	}

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
			registered(userID.String(), now.Add(-time.Minute), now.Add(time.Hour)))

		claims, err := svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "token-1", claims.ID)
		assert.True(t, claims.ExpiresAt.Equal(now.Add(time.Hour)))
	})

	t.Run("within clock skew", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
			registered(userID.String(), now.Add(-time.Hour), now.Add(-time.Minute)))

		_, err := svc.ValidateToken(context.Background(), token)
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		token   func() string
		wantErr error
	}{
		{
			name: "expired",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
					registered(userID.String(), now.Add(-2*time.Hour), now.Add(-time.Hour)))
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func() string {
				c := registered(userID.String(), now, now.Add(2*time.Hour))
				c.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "wrong secret",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS256, []byte("another-secret-that-is-32-chars-long!"),
					registered(userID.String(), now, now.Add(time.Hour)))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS512, []byte(testSecret),
					registered(userID.String(), now, now.Add(time.Hour)))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing expiry",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
					jwt.RegisteredClaims{Subject: userID.String()})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			token:   func() string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "subject not a UUID",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
					registered("learner@example.com", now, now.Add(time.Hour)))
			},
			wantErr: ErrInvalidSubject,
		},
		{
			name: "nil subject",
			token: func() string {
				return signToken(t, jwt.SigningMethodHS256, []byte(testSecret),
					registered(uuid.Nil.String(), now, now.Add(time.Hour)))
			},
			wantErr: ErrInvalidSubject,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(context.Background(), tc.token())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, claims)
		})
	}
}
