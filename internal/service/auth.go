package service

import (
	"context"
	"io"

	"contacts-server/internal/models"
)

// AuthService implements the account lifecycle: signup with email
// verification, credential login, refresh-token rotation and avatar upload.
type AuthService interface {
	// Signup registers a new account and schedules a verification email.
	// Returns models.ErrEmailAlreadyExists when the email is taken.
	Signup(ctx context.Context, username, email, password, baseURL string) (*models.User, error)

	// Login verifies credentials and issues a fresh token pair. The issued
	// refresh token replaces whatever was stored for the user.
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)

	// Refresh exchanges a valid refresh token for a new pair, rotating the
	// stored token. A presented token that does not match the stored one
	// clears the stored token, forcing re-login.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)

	// ConfirmEmail marks the token's subject as verified. The returned flag
	// is true when the email was already confirmed.
	ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error)

	// ResendVerification schedules another verification email. The returned
	// flag is true when the email is already confirmed and nothing was sent.
	ResendVerification(ctx context.Context, email, baseURL string) (alreadyConfirmed bool, err error)

	// TrackOpen records that the verification letter was opened. Best
	// effort; never fails the caller.
	TrackOpen(ctx context.Context, email string)

	// CurrentUser resolves the authenticated user by email.
	CurrentUser(ctx context.Context, email string) (*models.User, error)

	// UpdateAvatar uploads the image to the external host and stores the
	// resulting URL on the user.
	UpdateAvatar(ctx context.Context, email string, file io.Reader) (*models.User, error)
}
