package service

import (
	"testing"
	"time"

	"contacts-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTokenService(t *testing.T, accessTTL, refreshTTL, emailTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewJWTTokenService("test-jwt-secret", "HS256", accessTTL, refreshTTL, emailTTL, zap.NewNop())
	require.NoError(t, err, "NewJWTTokenService should succeed for HS256")
	return svc
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	email := "user@example.com"

	access, err := svc.CreateAccessToken(email)
	require.NoError(t, err)
	refresh, err := svc.CreateRefreshToken(email)
	require.NoError(t, err)
	require.NotEqual(t, access, refresh, "access and refresh tokens should differ")

	gotEmail, err := svc.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, email, gotEmail)

	gotEmail, err = svc.DecodeRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, email, gotEmail)
}

func TestTokenScopeMismatch(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour, 24*time.Hour)

	access, err := svc.CreateAccessToken("user@example.com")
	require.NoError(t, err)
	refresh, err := svc.CreateRefreshToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.DecodeRefreshToken(access)
	assert.ErrorIs(t, err, models.ErrTokenScope, "access token presented as refresh should fail on scope")

	_, err = svc.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, models.ErrTokenScope, "refresh token presented as access should fail on scope")
}

func TestTokenExpired(t *testing.T) {
	svc := newTestTokenService(t, -1*time.Minute, -1*time.Minute, 24*time.Hour)

	access, err := svc.CreateAccessToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(access)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestTokenMalformed(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour, 24*time.Hour)

	_, err := svc.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, models.ErrTokenMalformed)
}

func TestTokenWrongSecret(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	other, err := NewJWTTokenService("another-secret", "HS256", 15*time.Minute, time.Hour, time.Hour, zap.NewNop())
	require.NoError(t, err)

	access, err := other.CreateAccessToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(access)
	assert.ErrorIs(t, err, models.ErrTokenInvalid, "token signed with a different secret should be rejected")
}

func TestEmailTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour, 24*time.Hour)
	email := "confirm-me@example.com"

	token, err := svc.CreateEmailToken(email)
	require.NoError(t, err)

	gotEmail, err := svc.EmailFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, email, gotEmail)
}

func TestEmailTokenRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour, 24*time.Hour)

	_, err := svc.EmailFromToken("garbage")
	assert.ErrorIs(t, err, models.ErrEmailTokenInvalid)

	// An expired email token fails the same way as a malformed one.
	expiring := newTestTokenService(t, time.Minute, time.Minute, -1*time.Minute)
	token, err := expiring.CreateEmailToken("user@example.com")
	require.NoError(t, err)
	_, err = svc.EmailFromToken(token)
	assert.ErrorIs(t, err, models.ErrEmailTokenInvalid)
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewJWTTokenService("secret", "XX999", time.Minute, time.Minute, time.Minute, zap.NewNop())
	assert.Error(t, err)
}
