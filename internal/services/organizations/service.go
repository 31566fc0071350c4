// Package organizations resolves incoming company records onto canonical
// rows and maintains the employment edges between profiles and
// organizations. Identity is the normalized page URL; URL-less records
// fall back to near-exact name matching.
package organizations

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// nameMatchThreshold is the minimum token Jaccard similarity for two
// organization names to be treated as the same company.
const nameMatchThreshold = 0.9

// Service de-duplicates and merges organization records.
type Service struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

var _ interfaces.OrganizationService = (*Service)(nil)

// NewService creates a new organization service.
func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// UpsertOrganization finds the canonical row for an incoming record and
// merges into it, or inserts a new one. Match order: normalized URL,
// then name similarity over URL-less rows, then insert.
func (s *Service) UpsertOrganization(ctx context.Context, incoming *models.Organization) (*models.Organization, error) {
	if incoming == nil || incoming.Name == "" {
		return nil, &models.ValidationError{Field: "name", Message: "must not be empty"}
	}

	orgStorage := s.storage.OrganizationStorage()

	// Re-derive the normalized URL so callers cannot hand us a stale key.
	if incoming.URL != "" {
		if normalized, err := common.NormalizeURL(incoming.URL); err == nil {
			incoming.URLNormalized = normalized
		}
	}

	if incoming.URLNormalized != "" {
		existing, err := orgStorage.GetOrganizationByURL(ctx, incoming.URLNormalized)
		if err == nil {
			existing.MergeFrom(incoming)
			if err := orgStorage.SaveOrganization(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to update organization %s: %w", existing.ID, err)
			}
			s.logger.Debug().
				Str("organization_id", existing.ID).
				Str("name", existing.Name).
				Msg("Merged organization by URL")
			return existing, nil
		}
		if !models.IsNotFound(err) {
			return nil, fmt.Errorf("organization lookup by URL failed: %w", err)
		}
	}

	// Rows that already carry a URL identify a specific company page, so
	// only URL-less rows are candidates for a name match. A hit means an
	// earlier name-only reference is now resolvable and picks up the URL
	// through the merge.
	match, err := s.findByName(ctx, incoming.Name)
	if err != nil {
		return nil, err
	}
	if match != nil {
		match.MergeFrom(incoming)
		if err := orgStorage.SaveOrganization(ctx, match); err != nil {
			return nil, fmt.Errorf("failed to update organization %s: %w", match.ID, err)
		}
		s.logger.Debug().
			Str("organization_id", match.ID).
			Str("name", match.Name).
			Msg("Merged organization by name similarity")
		return match, nil
	}

	if err := orgStorage.SaveOrganization(ctx, incoming); err != nil {
		return nil, fmt.Errorf("failed to insert organization: %w", err)
	}
	s.logger.Debug().
		Str("organization_id", incoming.ID).
		Str("name", incoming.Name).
		Msg("Inserted new organization")
	return incoming, nil
}

// LinkProfile upserts the employment edge for one experience stint. The
// edge id derives from (profile, organization, start date), so concurrent
// ingestion of the same stint lands on one row.
func (s *Service) LinkProfile(ctx context.Context, profileID, organizationID string, exp models.Experience) (*models.ProfileOrganization, error) {
	if profileID == "" {
		return nil, &models.ValidationError{Field: "profile_id", Message: "must not be empty"}
	}
	if organizationID == "" {
		return nil, &models.ValidationError{Field: "organization_id", Message: "must not be empty"}
	}

	edge := models.NewProfileOrganization(profileID, organizationID, exp)
	if err := s.storage.EdgeStorage().SaveEdge(ctx, edge); err != nil {
		return nil, fmt.Errorf("failed to save employment edge: %w", err)
	}

	s.logger.Debug().
		Str("profile_id", profileID).
		Str("organization_id", organizationID).
		Str("edge_id", edge.ID).
		Msg("Linked profile to organization")

	return edge, nil
}

// findByName scans URL-less organizations for a near-exact name match.
// Returns the highest-scoring row at or above the threshold, or nil.
func (s *Service) findByName(ctx context.Context, name string) (*models.Organization, error) {
	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return nil, nil
	}

	all, err := s.storage.OrganizationStorage().GetAllOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("organization scan failed: %w", err)
	}

	var best *models.Organization
	bestScore := 0.0
	for _, org := range all {
		if org.URLNormalized != "" {
			continue
		}
		score := jaccard(tokens, nameTokens(org.Name))
		if score >= nameMatchThreshold && score > bestScore {
			best = org
			bestScore = score
		}
	}
	return best, nil
}

// nameTokens lowercases a company name and splits it into a set of
// letter/digit tokens. Punctuation and whitespace separate tokens, so
// "Acme, Inc." and "acme inc" produce the same set.
func nameTokens(name string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// jaccard computes intersection-over-union for two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
