package badger

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ProfileStorage implements the ProfileStorage interface for Badger
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ProfileStorage) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		return fmt.Errorf("profile ID is required")
	}

	if err := s.db.Store().Upsert(profile.ID, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *ProfileStorage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Store().Get(id, &profile); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "profile", ID: id}
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileStorage) GetProfileByURL(ctx context.Context, normalizedURL string) (*models.Profile, error) {
	var profiles []models.Profile
	err := s.db.Store().Find(&profiles, badgerhold.Where("LinkedInURLNormalized").Eq(normalizedURL).Index("LinkedInURLNormalized"))
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by url: %w", err)
	}
	if len(profiles) == 0 {
		return nil, &models.NotFoundError{Resource: "profile", ID: normalizedURL}
	}
	return &profiles[0], nil
}

// filterQuery builds the query for the filter fields of opts, without
// pagination or ordering.
func filterQuery(opts *interfaces.ProfileListOptions) *badgerhold.Query {
	query := badgerhold.Where("ID").Ne("")
	if opts == nil {
		return query
	}
	if opts.LinkedInURL != "" {
		query = query.And("LinkedInURLNormalized").Eq(opts.LinkedInURL)
	}
	if opts.Name != "" {
		query = query.And("FullName").RegExp(substringPattern(opts.Name))
	}
	if opts.Company != "" {
		query = query.And("CurrentCompany").RegExp(substringPattern(opts.Company))
	}
	return query
}

// substringPattern compiles a case-insensitive literal substring matcher.
func substringPattern(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}

func (s *ProfileStorage) ListProfiles(ctx context.Context, opts *interfaces.ProfileListOptions) ([]*models.Profile, error) {
	query := filterQuery(opts)

	if opts != nil {
		// A zero limit is an explicit empty page request, handled by the
		// caller. Sorting must happen before Skip/Limit so pages are
		// stable across requests.
		if opts.SortBy != "" {
			if opts.SortDir == "desc" {
				query = query.SortBy(opts.SortBy).Reverse()
			} else {
				query = query.SortBy(opts.SortBy)
			}
		} else {
			query = query.SortBy("CreatedAt").Reverse()
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
	}

	var profiles []models.Profile
	if err := s.db.Store().Find(&profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	result := make([]*models.Profile, len(profiles))
	for i := range profiles {
		result[i] = &profiles[i]
	}
	return result, nil
}

func (s *ProfileStorage) DeleteProfile(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Profile{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.NotFoundError{Resource: "profile", ID: id}
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (s *ProfileStorage) CountProfiles(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Profile{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return int(count), nil
}

func (s *ProfileStorage) CountProfilesMatching(ctx context.Context, opts *interfaces.ProfileListOptions) (int, error) {
	count, err := s.db.Store().Count(&models.Profile{}, filterQuery(opts))
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return int(count), nil
}

func (s *ProfileStorage) ClearAll(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.Profile{}, nil)
}
