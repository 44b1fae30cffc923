package repository

import (
	"context"
	"fmt"

	"contacts-server/internal/interfaces"
	"contacts-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgContactRepository implements ContactRepository
var _ interfaces.ContactRepository = (*pgContactRepository)(nil)

const contactColumns = `id, name, last_name, email, phone_number, birthday, user_id`

type pgContactRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgContactRepository creates a new PostgreSQL-backed ContactRepository.
func NewPgContactRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ContactRepository {
	return &pgContactRepository{
		db:     db,
		logger: logger.Named("PgContactRepo"),
	}
}

// List returns the user's contacts with limit/offset pagination.
func (r *pgContactRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()), zap.Int("limit", limit), zap.Int("offset", offset))

	contacts := make([]models.Contact, 0)
	if err := pgxscan.Select(ctx, r.db, &contacts, query, userID, limit, offset); err != nil {
		r.logger.Error("Failed to query contacts from postgres", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	return contacts, nil
}

// GetByID returns a single contact owned by the user.
func (r *pgContactRepository) GetByID(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`
	contact := &models.Contact{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
	err := pgxscan.Get(ctx, r.db, contact, query, contactID, userID)

	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Contact not found", zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
			return nil, models.ErrContactNotFound
		}
		r.logger.Error("Failed to get contact from postgres", zap.Error(err), zap.Int64("contactID", contactID))
		return nil, fmt.Errorf("failed to get contact from postgres: %w", err)
	}
	return contact, nil
}

// Create inserts a contact for the user and fills in the generated id.
func (r *pgContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	query := `INSERT INTO contacts (name, last_name, email, phone_number, birthday, user_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", contact.UserID.String()))
	err := r.db.QueryRow(ctx, query,
		contact.Name, contact.LastName, contact.Email, contact.PhoneNumber, contact.Birthday, contact.UserID).
		Scan(&contact.ID)

	if err != nil {
		r.logger.Error("Failed to create contact in postgres", zap.Error(err), zap.String("userID", contact.UserID.String()))
		return fmt.Errorf("failed to create contact in postgres: %w", err)
	}
	r.logger.Info("Contact created successfully", zap.Int64("contactID", contact.ID), zap.String("userID", contact.UserID.String()))
	return nil
}

// Update replaces all mutable fields of the contact and returns the
// updated row.
func (r *pgContactRepository) Update(ctx context.Context, userID uuid.UUID, contactID int64, contact *models.Contact) (*models.Contact, error) {
	query := `UPDATE contacts
	          SET name = $1, last_name = $2, email = $3, phone_number = $4, birthday = $5
	          WHERE id = $6 AND user_id = $7
	          RETURNING ` + contactColumns
	updated := &models.Contact{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
	err := pgxscan.Get(ctx, r.db, updated, query,
		contact.Name, contact.LastName, contact.Email, contact.PhoneNumber, contact.Birthday, contactID, userID)

	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Attempted to update missing contact", zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
			return nil, models.ErrContactNotFound
		}
		r.logger.Error("Failed to update contact in postgres", zap.Error(err), zap.Int64("contactID", contactID))
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return updated, nil
}

// Delete removes the contact and returns the removed row.
func (r *pgContactRepository) Delete(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING ` + contactColumns
	removed := &models.Contact{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
	err := pgxscan.Get(ctx, r.db, removed, query, contactID, userID)

	if err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Attempted to delete missing contact", zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
			return nil, models.ErrContactNotFound
		}
		r.logger.Error("Failed to delete contact in postgres", zap.Error(err), zap.Int64("contactID", contactID))
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}
	r.logger.Info("Contact deleted", zap.Int64("contactID", contactID), zap.String("userID", userID.String()))
	return removed, nil
}

// Search returns the user's contacts whose name, last name, email or phone
// number contains the query, case-insensitively.
func (r *pgContactRepository) Search(ctx context.Context, userID uuid.UUID, searchQuery string) ([]models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
	          WHERE user_id = $1
	            AND (name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2 OR phone_number ILIKE $2)
	          ORDER BY id ASC`
	pattern := "%" + searchQuery + "%"
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()), zap.String("search", searchQuery))

	contacts := make([]models.Contact, 0)
	if err := pgxscan.Select(ctx, r.db, &contacts, query, userID, pattern); err != nil {
		r.logger.Error("Failed to search contacts in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return contacts, nil
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// seven days. The comparison matches the month of today+7d and a day-of-month
// between today's and today+7d's, so windows crossing a month boundary only
// report the tail of the window.
func (r *pgContactRepository) UpcomingBirthdays(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
	          WHERE user_id = $1
	            AND EXTRACT(MONTH FROM birthday) = EXTRACT(MONTH FROM CURRENT_DATE + INTERVAL '7 days')
	            AND EXTRACT(DAY FROM birthday) BETWEEN EXTRACT(DAY FROM CURRENT_DATE)
	                                               AND EXTRACT(DAY FROM CURRENT_DATE + INTERVAL '7 days')
	          ORDER BY id ASC`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))

	contacts := make([]models.Contact, 0)
	if err := pgxscan.Select(ctx, r.db, &contacts, query, userID); err != nil {
		r.logger.Error("Failed to query upcoming birthdays", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to query upcoming birthdays: %w", err)
	}
	return contacts, nil
}
