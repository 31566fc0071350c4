package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// OrganizationStorage implements the OrganizationStorage interface for Badger
type OrganizationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOrganizationStorage creates a new OrganizationStorage instance
func NewOrganizationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OrganizationStorage {
	return &OrganizationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *OrganizationStorage) SaveOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		return fmt.Errorf("organization ID is required")
	}

	if err := s.db.Store().Upsert(org.ID, org); err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}
	return nil
}

func (s *OrganizationStorage) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.Store().Get(id, &org); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "organization", ID: id}
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

func (s *OrganizationStorage) GetOrganizationByURL(ctx context.Context, normalizedURL string) (*models.Organization, error) {
	var orgs []models.Organization
	err := s.db.Store().Find(&orgs, badgerhold.Where("URLNormalized").Eq(normalizedURL).Index("URLNormalized"))
	if err != nil {
		return nil, fmt.Errorf("failed to find organization by url: %w", err)
	}
	if len(orgs) == 0 {
		return nil, &models.NotFoundError{Resource: "organization", ID: normalizedURL}
	}
	return &orgs[0], nil
}

func (s *OrganizationStorage) GetAllOrganizations(ctx context.Context) ([]*models.Organization, error) {
	var orgs []models.Organization
	if err := s.db.Store().Find(&orgs, nil); err != nil {
		return nil, fmt.Errorf("failed to load organizations: %w", err)
	}

	result := make([]*models.Organization, len(orgs))
	for i := range orgs {
		result[i] = &orgs[i]
	}
	return result, nil
}

func (s *OrganizationStorage) DeleteOrganization(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Organization{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.NotFoundError{Resource: "organization", ID: id}
		}
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func (s *OrganizationStorage) CountOrganizations(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Organization{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return int(count), nil
}

func (s *OrganizationStorage) ClearAll(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.Organization{}, nil)
}
