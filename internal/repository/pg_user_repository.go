package repository

import (
	"context"
	"errors"
	"fmt"

	"contacts-server/internal/interfaces"
	"contacts-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

const userColumns = `id, username, email, password, avatar, refresh_token, email_verified, open_verification_letter, created_at, updated_at`

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

// CreateUser inserts a new user into the database.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, password, avatar)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, email_verified, open_verification_letter, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", user.Email))
	err := r.db.QueryRow(ctx, query, user.Username, user.Email, user.Password, user.Avatar).
		Scan(&user.ID, &user.EmailVerified, &user.OpenVerificationLetter, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Attempted to create duplicate user by email", zap.String("email", user.Email))
			return models.ErrEmailAlreadyExists
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("email", user.Email))
	return nil
}

// GetUserByEmail retrieves a user by their email.
func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user := &models.User{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", email))
	err := pgxscan.Get(ctx, r.db, user, query, email)

	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("User not found by email", zap.String("email", email))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by email from postgres", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email from postgres: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user := &models.User{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))
	err := pgxscan.Get(ctx, r.db, user, query, id)

	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("User not found by ID", zap.String("id", id.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user by id from postgres: %w", err)
	}
	return user, nil
}

// UpdateRefreshToken stores (or clears, when token is nil) the current
// refresh token for the user.
func (r *pgUserRepository) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))

	cmdTag, err := r.db.Exec(ctx, query, token, userID)
	if err != nil {
		r.logger.Error("Failed to update refresh token in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update refresh token for non-existent user", zap.String("userID", userID.String()))
		return models.ErrUserNotFound
	}
	return nil
}

// MarkEmailVerified sets email_verified=true for the given email.
func (r *pgUserRepository) MarkEmailVerified(ctx context.Context, email string) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = CURRENT_TIMESTAMP WHERE email = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", email))

	cmdTag, err := r.db.Exec(ctx, query, email)
	if err != nil {
		r.logger.Error("Failed to mark email verified in postgres", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to verify email for non-existent user", zap.String("email", email))
		return models.ErrUserNotFound
	}

	r.logger.Info("Email marked as verified", zap.String("email", email))
	return nil
}

// MarkVerificationOpened records that the verification letter's tracking
// image was loaded. Idempotent; unknown emails are not an error because the
// tracking pixel must always render.
func (r *pgUserRepository) MarkVerificationOpened(ctx context.Context, email string) error {
	query := `UPDATE users SET open_verification_letter = TRUE, updated_at = CURRENT_TIMESTAMP WHERE email = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", email))

	if _, err := r.db.Exec(ctx, query, email); err != nil {
		r.logger.Error("Failed to mark verification letter opened", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to mark verification letter opened: %w", err)
	}
	return nil
}

// UpdateAvatar stores the avatar URL and returns the updated user.
func (r *pgUserRepository) UpdateAvatar(ctx context.Context, email string, url *string) (*models.User, error) {
	query := `UPDATE users SET avatar = $1, updated_at = CURRENT_TIMESTAMP WHERE email = $2
	          RETURNING ` + userColumns
	user := &models.User{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", email))
	err := pgxscan.Get(ctx, r.db, user, query, url, email)

	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Warn("Attempted to update avatar for non-existent user", zap.String("email", email))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to update avatar in postgres", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	r.logger.Info("Avatar updated successfully", zap.String("email", email))
	return user, nil
}

// ListUsers retrieves all registered users.
// TODO: Add pagination (LIMIT, OFFSET)
func (r *pgUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`
	r.logger.Debug("Executing query", zap.String("query", query))

	users := make([]models.User, 0)
	if err := pgxscan.Select(ctx, r.db, &users, query); err != nil {
		r.logger.Error("Failed to query users from postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}
