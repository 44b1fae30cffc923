package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is an address-book entry owned by exactly one user. Every
// repository operation on contacts is scoped by the owner's id.
type Contact struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Birthday    time.Time `db:"birthday" json:"birthday"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
}
