package service

import (
	"context"
	"errors"

	"contacts-server/internal/interfaces"
	"contacts-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pagination bounds for contact listing.
const (
	minContactLimit = 10
	maxContactLimit = 500
)

// ContactService exposes the per-user contact book. All operations are
// scoped to the owning user; requests for contacts the user does not own
// report models.ErrContactNotFound.
type ContactService interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contact, error)
	Get(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error)
	Create(ctx context.Context, userID uuid.UUID, contact *models.Contact) (*models.Contact, error)
	Update(ctx context.Context, userID uuid.UUID, contactID int64, contact *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error)
	Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
}

// Compile-time check to ensure contactServiceImpl implements ContactService
var _ ContactService = (*contactServiceImpl)(nil)

type contactServiceImpl struct {
	repo   interfaces.ContactRepository
	logger *zap.Logger
}

// NewContactService creates a new ContactService implementation.
func NewContactService(repo interfaces.ContactRepository, logger *zap.Logger) ContactService {
	return &contactServiceImpl{
		repo:   repo,
		logger: logger.Named("ContactService"),
	}
}

// List clamps the requested page size into [minContactLimit, maxContactLimit]
// and returns the page.
func (s *contactServiceImpl) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Contact, error) {
	if limit < minContactLimit {
		limit = minContactLimit
	}
	if limit > maxContactLimit {
		limit = maxContactLimit
	}
	if offset < 0 {
		offset = 0
	}

	contacts, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	return contacts, nil
}

func (s *contactServiceImpl) Get(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error) {
	contact, err := s.repo.GetByID(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			return nil, models.ErrContactNotFound
		}
		return nil, models.ErrInternalServer
	}
	return contact, nil
}

func (s *contactServiceImpl) Create(ctx context.Context, userID uuid.UUID, contact *models.Contact) (*models.Contact, error) {
	contact.UserID = userID
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, models.ErrInternalServer
	}
	s.logger.Debug("Contact created", zap.Int64("contactID", contact.ID), zap.String("userID", userID.String()))
	return contact, nil
}

func (s *contactServiceImpl) Update(ctx context.Context, userID uuid.UUID, contactID int64, contact *models.Contact) (*models.Contact, error) {
	updated, err := s.repo.Update(ctx, userID, contactID, contact)
	if err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			return nil, models.ErrContactNotFound
		}
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

func (s *contactServiceImpl) Delete(ctx context.Context, userID uuid.UUID, contactID int64) (*models.Contact, error) {
	removed, err := s.repo.Delete(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, models.ErrContactNotFound) {
			return nil, models.ErrContactNotFound
		}
		return nil, models.ErrInternalServer
	}
	return removed, nil
}

func (s *contactServiceImpl) Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Contact, error) {
	contacts, err := s.repo.Search(ctx, userID, query)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	return contacts, nil
}

func (s *contactServiceImpl) UpcomingBirthdays(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	contacts, err := s.repo.UpcomingBirthdays(ctx, userID)
	if err != nil {
		return nil, models.ErrInternalServer
	}
	return contacts, nil
}
