package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gac-quitus-api/internal/models"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, expires time.Time) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "cb-1",
		Role:   models.RoleCB,
		Email:  "cb@example.org",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "cb-1", claims.UserID)
	require.Equal(t, models.RoleCB, claims.Role)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "other-secret", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, time.Now().Add(-time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceRejectsUnexpectedSigningMethod(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS512, time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}
