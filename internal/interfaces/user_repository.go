package interfaces

import (
	"context"

	"contacts-server/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data persistence (PostgreSQL).
type UserRepository interface {
	// CreateUser inserts a new user and fills in the generated id and
	// timestamps. Returns models.ErrEmailAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by their email address.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by their ID.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdateRefreshToken stores the current refresh token for the user.
	// A nil token clears it (forcing re-login).
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// MarkEmailVerified sets email_verified=true for the given email.
	MarkEmailVerified(ctx context.Context, email string) error

	// MarkVerificationOpened records that the verification letter's
	// tracking image was loaded. Idempotent.
	MarkVerificationOpened(ctx context.Context, email string) error

	// UpdateAvatar stores the avatar URL and returns the updated user.
	UpdateAvatar(ctx context.Context, email string, url *string) (*models.User, error)

	// ListUsers retrieves all registered users (dev endpoint).
	ListUsers(ctx context.Context) ([]models.User, error)
}

// UserCache is a read-through/write-through cache in front of UserRepository,
// keyed by email. Entries expire after a fixed TTL; the repository remains
// the source of truth.
type UserCache interface {
	// GetUser returns the cached snapshot for the email, falling back to the
	// repository and populating the cache on a miss.
	// Returns models.ErrUserNotFound when the user does not exist anywhere.
	GetUser(ctx context.Context, email string) (*models.User, error)

	// UpdateUser unconditionally overwrites the cache entry for the user's
	// email and resets its TTL. Called after every user mutation.
	UpdateUser(ctx context.Context, user *models.User) error
}
