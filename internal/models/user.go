package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	Username               string    `db:"username" json:"username"`
	Email                  string    `db:"email" json:"email"`
	Password               string    `db:"password" json:"-"` // bcrypt hash, never serialized
	Avatar                 *string   `db:"avatar" json:"avatar"`
	RefreshToken           *string   `db:"refresh_token" json:"-"`
	EmailVerified          bool      `db:"email_verified" json:"email_verified"`
	OpenVerificationLetter bool      `db:"open_verification_letter" json:"open_verification_letter"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}
