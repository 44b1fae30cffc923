package interfaces

import (
	"context"

	"contacts-server/internal/models"

	"github.com/google/uuid"
)

// ContactRepository defines persistence for contacts. Every operation is
// scoped by the owning user's id; a contact that exists but belongs to a
// different user is reported as models.ErrContactNotFound, exactly like a
// missing id.
type ContactRepository interface {
	// List returns the user's contacts with limit/offset pagination.
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contact, error)

	// GetByID returns a single contact owned by the user.
	// Returns models.ErrContactNotFound on absence or ownership mismatch.
	GetByID(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error)

	// Create inserts a contact for the user and fills in the generated id.
	Create(ctx context.Context, contact *models.Contact) error

	// Update replaces all mutable fields of the contact.
	// Returns models.ErrContactNotFound on absence or ownership mismatch.
	Update(ctx context.Context, userID uuid.UUID, contactID int64, contact *models.Contact) (*models.Contact, error)

	// Delete removes the contact and returns the removed row.
	// Returns models.ErrContactNotFound on absence or ownership mismatch.
	Delete(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error)

	// Search returns the user's contacts whose name, last name, email or
	// phone number contains the query, case-insensitively.
	Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Contact, error)

	// UpcomingBirthdays returns contacts whose birthday falls within the
	// next seven days, compared by month and day-of-month.
	UpcomingBirthdays(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
}
