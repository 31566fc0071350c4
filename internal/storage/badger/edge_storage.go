package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// EdgeStorage implements the EdgeStorage interface for Badger.
// Edges are keyed by a composite derived from (profile, organization, start
// date), so saving the same employment stint twice is an update.
type EdgeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEdgeStorage creates a new EdgeStorage instance
func NewEdgeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EdgeStorage {
	return &EdgeStorage{
		db:     db,
		logger: logger,
	}
}

func (s *EdgeStorage) SaveEdge(ctx context.Context, edge *models.ProfileOrganization) error {
	if edge.ID == "" {
		return fmt.Errorf("edge ID is required")
	}
	if edge.ProfileID == "" || edge.OrganizationID == "" {
		return fmt.Errorf("edge requires profile and organization IDs")
	}

	if err := s.db.Store().Upsert(edge.ID, edge); err != nil {
		return fmt.Errorf("failed to save edge: %w", err)
	}
	return nil
}

func (s *EdgeStorage) GetEdgesByProfile(ctx context.Context, profileID string) ([]*models.ProfileOrganization, error) {
	var edges []models.ProfileOrganization
	err := s.db.Store().Find(&edges, badgerhold.Where("ProfileID").Eq(profileID).Index("ProfileID"))
	if err != nil {
		return nil, fmt.Errorf("failed to get edges by profile: %w", err)
	}

	result := make([]*models.ProfileOrganization, len(edges))
	for i := range edges {
		result[i] = &edges[i]
	}
	return result, nil
}

func (s *EdgeStorage) GetEdgesByOrganization(ctx context.Context, organizationID string) ([]*models.ProfileOrganization, error) {
	var edges []models.ProfileOrganization
	err := s.db.Store().Find(&edges, badgerhold.Where("OrganizationID").Eq(organizationID).Index("OrganizationID"))
	if err != nil {
		return nil, fmt.Errorf("failed to get edges by organization: %w", err)
	}

	result := make([]*models.ProfileOrganization, len(edges))
	for i := range edges {
		result[i] = &edges[i]
	}
	return result, nil
}

func (s *EdgeStorage) DeleteEdgesByProfile(ctx context.Context, profileID string) error {
	err := s.db.Store().DeleteMatching(&models.ProfileOrganization{}, badgerhold.Where("ProfileID").Eq(profileID).Index("ProfileID"))
	if err != nil {
		return fmt.Errorf("failed to delete edges for profile: %w", err)
	}
	return nil
}

func (s *EdgeStorage) CountEdgesByOrganization(ctx context.Context, organizationID string) (int, error) {
	count, err := s.db.Store().Count(&models.ProfileOrganization{}, badgerhold.Where("OrganizationID").Eq(organizationID).Index("OrganizationID"))
	if err != nil {
		return 0, fmt.Errorf("failed to count edges by organization: %w", err)
	}
	return int(count), nil
}

func (s *EdgeStorage) ClearAll(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.ProfileOrganization{}, nil)
}
