package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// OrganizationService de-duplicates and merges organizations.
// Identity resolution: normalized page URL first, then near-exact name
// similarity as a fallback for URL-less records.
type OrganizationService interface {
	// UpsertOrganization finds an existing organization matching the
	// incoming record and merges into it, or creates a new one. The
	// returned organization is the persisted state.
	UpsertOrganization(ctx context.Context, incoming *models.Organization) (*models.Organization, error)

	// LinkProfile records an employment edge between a profile and an
	// organization. Re-linking the same employment stint updates the
	// existing edge instead of duplicating it.
	LinkProfile(ctx context.Context, profileID, organizationID string, exp models.Experience) (*models.ProfileOrganization, error)
}
