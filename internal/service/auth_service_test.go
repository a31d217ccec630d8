package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, nil, AuthConfig{Secret: "test-secret", TokenTTL: time.Hour, Issuer: "academy-admissions"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken(AdminTokenRequest{UserID: "ops-1", Email: "ops@academy.pk"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.UserID)
	assert.Equal(t, models.AdminRole, claims.Role)
	assert.Equal(t, "ops@academy.pk", claims.Email)
}

func TestAuthServiceIssueValidatesRequest(t *testing.T) {
	svc := newTestAuthService()

	_, _, err := svc.IssueToken(AdminTokenRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.IssueToken(AdminTokenRequest{UserID: "x", Email: "nope"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	noSecret := NewAuthService(nil, nil, AuthConfig{})
	_, _, err = noSecret.IssueToken(AdminTokenRequest{UserID: "x"})
	require.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := newTestAuthService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken(AdminTokenRequest{UserID: "ops-1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsWrongSecretAndIssuer(t *testing.T) {
	svc := newTestAuthService()

	other := NewAuthService(nil, nil, AuthConfig{Secret: "other", Issuer: "academy-admissions"})
	token, _, err := other.IssueToken(AdminTokenRequest{UserID: "ops-1"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := NewAuthService(nil, nil, AuthConfig{Secret: "test-secret", Issuer: "someone-else"})
	token, _, err = foreign.IssueToken(AdminTokenRequest{UserID: "ops-1"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("garbage")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsNonAdminRole(t *testing.T) {
	svc := newTestAuthService()
	now := time.Now()
	claims := models.AdminClaims{
		UserID: "student-1",
		Role:   "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "academy-admissions",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
