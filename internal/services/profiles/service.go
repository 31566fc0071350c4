// Package profiles is the read and delete surface over stored profiles
// and organizations. Listing resolves the API sort aliases onto stored
// fields and enforces the pagination bounds; deletion cascades to the
// profile's employment edges and scoring jobs while organizations stay,
// since other profiles may reference them.
package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

const (
	// DefaultListLimit applies when the API request names no limit.
	DefaultListLimit = 50
	// MaxListLimit is the hard page-size ceiling.
	MaxListLimit = 100
)

// sortAliases maps accepted sort keys onto stored profile fields. Keys
// outside this map are rejected.
var sortAliases = map[string]string{
	"name":             "FullName",
	"full_name":        "FullName",
	"position":         "CurrentPosition",
	"city":             "City",
	"location":         "City",
	"company":          "CurrentCompany",
	"current_company":  "CurrentCompany",
	"created_at":       "CreatedAt",
	"updated_at":       "UpdatedAt",
	"timestamp":        "UpdatedAt",
	"follower_count":   "FollowerCount",
	"connection_count": "ConnectionCount",
}

// Service implements profile and organization reads plus profile
// deletion.
type Service struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

var _ interfaces.ProfileService = (*Service)(nil)

// NewService creates a new profile service.
func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// GetProfile returns a profile with the organizations reachable from its
// employment edges, in edge order with duplicates collapsed.
func (s *Service) GetProfile(ctx context.Context, id string) (*models.EnrichedProfile, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "must not be empty"}
	}

	profile, err := s.storage.ProfileStorage().GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	edges, err := s.storage.EdgeStorage().GetEdgesByProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(edges))
	organizations := make([]*models.Organization, 0, len(edges))
	for _, edge := range edges {
		if edge.OrganizationID == "" || seen[edge.OrganizationID] {
			continue
		}
		seen[edge.OrganizationID] = true

		org, err := s.storage.OrganizationStorage().GetOrganization(ctx, edge.OrganizationID)
		if err != nil {
			if models.IsNotFound(err) {
				// Dangling edge; the organization was removed out of band.
				s.logger.Warn().
					Str("profile_id", id).
					Str("organization_id", edge.OrganizationID).
					Msg("Employment edge references a missing organization")
				continue
			}
			return nil, err
		}
		organizations = append(organizations, org)
	}

	return &models.EnrichedProfile{Profile: profile, Organizations: organizations}, nil
}

// ListProfiles returns one page of profiles. A zero limit returns an
// empty page with correct pagination, which callers use as a count probe.
func (s *Service) ListProfiles(ctx context.Context, query *models.ProfileListQuery) (*models.ProfilePage, error) {
	if query == nil {
		query = &models.ProfileListQuery{Limit: DefaultListLimit}
	}

	opts, err := resolveListOptions(query)
	if err != nil {
		return nil, err
	}

	total, err := s.storage.ProfileStorage().CountProfilesMatching(ctx, opts)
	if err != nil {
		return nil, err
	}

	page := &models.ProfilePage{
		Profiles: []*models.Profile{},
		Pagination: models.Pagination{
			Total:  total,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
	}
	if opts.Limit == 0 {
		page.Pagination.HasMore = opts.Offset < total
		return page, nil
	}

	profiles, err := s.storage.ProfileStorage().ListProfiles(ctx, opts)
	if err != nil {
		return nil, err
	}

	page.Profiles = profiles
	page.Pagination.HasMore = opts.Offset+len(profiles) < total
	return page, nil
}

// DeleteProfile removes a profile with its employment edges and scoring
// jobs.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	if id == "" {
		return &models.ValidationError{Field: "id", Message: "must not be empty"}
	}

	// Resolve first so a missing profile reports 404 before any cascade.
	if _, err := s.storage.ProfileStorage().GetProfile(ctx, id); err != nil {
		return err
	}

	if err := s.storage.EdgeStorage().DeleteEdgesByProfile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete employment edges: %w", err)
	}

	removedJobs, err := s.storage.ScoringJobStorage().DeleteJobsByProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete scoring jobs: %w", err)
	}

	if err := s.storage.ProfileStorage().DeleteProfile(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("profile_id", id).
		Int("scoring_jobs_removed", removedJobs).
		Msg("Profile deleted with cascade")
	return nil
}

// GetOrganization returns an organization with the number of distinct
// profiles linked to it.
func (s *Service) GetOrganization(ctx context.Context, id string) (*models.OrganizationDetail, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "must not be empty"}
	}

	org, err := s.storage.OrganizationStorage().GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	edges, err := s.storage.EdgeStorage().GetEdgesByOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	distinct := make(map[string]bool, len(edges))
	for _, edge := range edges {
		distinct[edge.ProfileID] = true
	}

	return &models.OrganizationDetail{
		Organization:   org,
		LinkedProfiles: len(distinct),
	}, nil
}

// resolveListOptions validates the query and translates sort aliases onto
// stored field names.
func resolveListOptions(query *models.ProfileListQuery) (*interfaces.ProfileListOptions, error) {
	if query.Limit < 0 {
		return nil, &models.ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if query.Limit > MaxListLimit {
		return nil, &models.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("must not exceed %d", MaxListLimit),
		}
	}
	if query.Offset < 0 {
		return nil, &models.ValidationError{Field: "offset", Message: "must not be negative"}
	}

	sortBy := "CreatedAt"
	if key := strings.ToLower(strings.TrimSpace(query.SortBy)); key != "" {
		field, ok := sortAliases[key]
		if !ok {
			return nil, &models.ValidationError{
				Field:   "sort_by",
				Message: fmt.Sprintf("unknown sort key %q", query.SortBy),
			}
		}
		sortBy = field
	}

	sortDir := strings.ToLower(strings.TrimSpace(query.SortDir))
	switch sortDir {
	case "":
		// Newest first for timestamps, ascending for everything else.
		if sortBy == "CreatedAt" || sortBy == "UpdatedAt" {
			sortDir = "desc"
		} else {
			sortDir = "asc"
		}
	case "asc", "desc":
	default:
		return nil, &models.ValidationError{
			Field:   "sort_order",
			Message: fmt.Sprintf("must be asc or desc, got %q", query.SortDir),
		}
	}

	opts := &interfaces.ProfileListOptions{
		Name:    strings.TrimSpace(query.Name),
		Company: strings.TrimSpace(query.Company),
		Limit:   query.Limit,
		Offset:  query.Offset,
		SortBy:  sortBy,
		SortDir: sortDir,
	}

	if raw := strings.TrimSpace(query.LinkedInURL); raw != "" {
		normalized, err := common.NormalizeURL(raw)
		if err != nil {
			return nil, &models.ValidationError{Field: "linkedin_url", Message: err.Error()}
		}
		opts.LinkedInURL = normalized
	}

	return opts, nil
}
