package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// ProfileService is the read and delete surface over stored profiles and
// organizations. Listing translates API sort aliases to stored fields and
// enforces the pagination limits.
type ProfileService interface {
	// GetProfile returns a profile with its linked organizations.
	GetProfile(ctx context.Context, id string) (*models.EnrichedProfile, error)

	// ListProfiles returns one page of profiles. Limit is capped at 100;
	// unknown sort fields and out-of-range pagination are rejected with
	// validation errors.
	ListProfiles(ctx context.Context, query *models.ProfileListQuery) (*models.ProfilePage, error)

	// DeleteProfile removes a profile with its employment edges and
	// scoring jobs. Linked organizations stay, since other profiles may
	// reference them.
	DeleteProfile(ctx context.Context, id string) error

	// GetOrganization returns an organization with its membership count.
	GetOrganization(ctx context.Context, id string) (*models.OrganizationDetail, error)
}
