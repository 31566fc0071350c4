// Package ingestion orchestrates the profile ingestion pipeline: URL
// validation, duplicate detection, the external profile fetch,
// canonicalization, persistence, and optional organization enrichment
// with employment linkage. Request lifecycle is reported through the
// in-process tracker.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/ternarybob/persona/internal/services/adapter"
)

// Service runs the ingestion pipeline.
type Service struct {
	workflow interfaces.WorkflowClient
	storage  interfaces.StorageManager
	orgs     interfaces.OrganizationService
	tracker  interfaces.TrackerService
	config   *common.IngestionConfig
	logger   arbor.ILogger
}

var _ interfaces.IngestionService = (*Service)(nil)

// NewService creates a new ingestion service.
func NewService(
	workflow interfaces.WorkflowClient,
	storage interfaces.StorageManager,
	orgs interfaces.OrganizationService,
	tracker interfaces.TrackerService,
	config *common.IngestionConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		workflow: workflow,
		storage:  storage,
		orgs:     orgs,
		tracker:  tracker,
		config:   config,
		logger:   logger,
	}
}

// Ingest runs the pipeline for one profile URL. A URL that already has a
// profile row is still refreshed in place, but the call reports
// DuplicateProfileError so the API surface can answer 409 with the
// existing id. With async processing enabled the pipeline continues in
// the background and only the tracking snapshot is returned.
func (s *Service) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResult, error) {
	if req == nil || strings.TrimSpace(req.LinkedInURL) == "" {
		return nil, &models.ValidationError{Field: "linkedin_url", Message: "must not be empty"}
	}

	ref, err := common.ValidateProfileURL(req.LinkedInURL)
	if err != nil {
		return nil, &models.ValidationError{Field: "linkedin_url", Message: err.Error()}
	}
	canonicalURL := ref.CanonicalURL()

	// The global flag wins over the per-request one.
	includeOrgs := s.config.EnableCompanyIngestion && req.IncludeOrganizations()

	// The duplicate verdict is taken before the pipeline runs so async
	// callers get their 409 immediately. The refresh happens either way.
	var existingID string
	existing, err := s.storage.ProfileStorage().GetProfileByURL(ctx, canonicalURL)
	switch {
	case err == nil:
		existingID = existing.ID
	case !models.IsNotFound(err):
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = common.NewRequestID()
	}
	status := s.tracker.Begin(requestID, req.LinkedInURL)

	if s.config.EnableAsyncProcessing {
		common.SafeGo(s.logger, "ingestion:"+requestID, func() {
			// The request context dies with the HTTP response; the
			// background run gets its own.
			if _, err := s.run(context.Background(), requestID, canonicalURL, includeOrgs); err != nil {
				s.logger.Warn().
					Err(err).
					Str("request_id", requestID).
					Msg("Background ingestion failed")
			}
		})
		if existingID != "" {
			return nil, &models.DuplicateProfileError{ExistingID: existingID, URL: req.LinkedInURL}
		}
		return &models.IngestResult{RequestID: requestID, Async: true, Status: status}, nil
	}

	enriched, err := s.run(ctx, requestID, canonicalURL, includeOrgs)
	if err != nil {
		return nil, err
	}
	if existingID != "" {
		return nil, &models.DuplicateProfileError{ExistingID: existingID, URL: req.LinkedInURL}
	}

	result := &models.IngestResult{
		RequestID:     requestID,
		Profile:       enriched.Profile,
		Organizations: enriched.Organizations,
	}
	if snapshot, ok := s.tracker.Get(requestID); ok {
		result.Status = snapshot
	}
	return result, nil
}

// Status returns the tracked state of a previous ingestion request.
func (s *Service) Status(requestID string) (*models.IngestionStatus, bool) {
	return s.tracker.Get(requestID)
}

// run executes the pipeline stages for one admitted request.
func (s *Service) run(ctx context.Context, requestID, canonicalURL string, includeOrgs bool) (*models.EnrichedProfile, error) {
	startTime := time.Now()

	s.logger.Info().
		Str("request_id", requestID).
		Str("linkedin_url", canonicalURL).
		Bool("include_organizations", includeOrgs).
		Msg("Starting profile ingestion")

	s.setStage(requestID, models.StageProfileFetch)

	payload, err := s.workflow.FetchProfile(ctx, canonicalURL)
	if err != nil {
		s.fail(requestID, err)
		return nil, err
	}

	// Canonicalize. Nothing is persisted when essentials are missing.
	profile, err := adapter.ProfileFromPayload(payload)
	if err != nil {
		s.fail(requestID, err)
		return nil, err
	}

	// Dedup and persist under the adapter's normalized URL, which is
	// authoritative over the request URL (slugs get renamed).
	persisted, err := s.persistProfile(ctx, profile)
	if err != nil {
		s.fail(requestID, err)
		return nil, fmt.Errorf("failed to persist profile: %w", err)
	}

	s.tracker.Update(requestID, func(st *models.IngestionStatus) {
		st.ProfileID = persisted.ID
	})

	enriched := &models.EnrichedProfile{
		Profile:       persisted,
		Organizations: []*models.Organization{},
	}

	if includeOrgs {
		s.setStage(requestID, models.StageOrganizationFetch)
		enriched.Organizations = s.enrichOrganizations(ctx, requestID, persisted)
	}

	duration := time.Since(startTime)
	s.tracker.Update(requestID, func(st *models.IngestionStatus) {
		st.State = models.IngestionStateCompleted
		st.Stage = models.StageCompleted
		st.Step = models.StageStep(models.StageCompleted)
		now := time.Now().UTC()
		st.CompletedAt = &now
		st.DurationMs = duration.Milliseconds()
	})

	s.logger.Info().
		Str("request_id", requestID).
		Str("profile_id", persisted.ID).
		Int("organizations", len(enriched.Organizations)).
		Dur("duration", duration).
		Msg("Profile ingestion completed")

	return enriched, nil
}

// persistProfile merges the adapted profile into an existing row sharing
// its normalized URL, or inserts it. The lookup happens at persist time,
// not admit time, so concurrent ingestions of one URL converge on a
// single row.
func (s *Service) persistProfile(ctx context.Context, incoming *models.Profile) (*models.Profile, error) {
	profileStorage := s.storage.ProfileStorage()

	existing, err := profileStorage.GetProfileByURL(ctx, incoming.LinkedInURLNormalized)
	if err == nil {
		existing.MergeFrom(incoming)
		if err := profileStorage.SaveProfile(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	if err := profileStorage.SaveProfile(ctx, incoming); err != nil {
		return nil, err
	}
	return incoming, nil
}

// enrichOrganizations derives the distinct company URLs from the
// experiences, batch fetches them, canonicalizes, upserts and links. The
// returned slice parallels the derived URL order; failed slots stay nil.
// Failures are counted and logged, never fatal.
func (s *Service) enrichOrganizations(ctx context.Context, requestID string, profile *models.Profile) []*models.Organization {
	urls, stintsByURL := deriveOrganizationURLs(profile)

	s.tracker.Update(requestID, func(st *models.IngestionStatus) {
		st.OrganizationsRequested = len(urls)
	})
	if len(urls) == 0 {
		return []*models.Organization{}
	}

	results := s.workflow.FetchCompanies(ctx, urls)

	organizations := make([]*models.Organization, len(urls))
	successful := 0
	linked := 0

	for i, result := range results {
		if result.Err != nil {
			s.logger.Warn().
				Err(result.Err).
				Str("request_id", requestID).
				Str("company_url", result.URL).
				Msg("Organization fetch failed, slot omitted")
			continue
		}

		org, err := adapter.OrganizationFromPayload(result.Payload)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("request_id", requestID).
				Str("company_url", result.URL).
				Msg("Organization payload incomplete, slot omitted")
			continue
		}
		// The fetched page is the identity even when the payload omits
		// its own URL.
		if org.URL == "" {
			org.URL = result.URL
		}

		stored, err := s.orgs.UpsertOrganization(ctx, org)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("request_id", requestID).
				Str("company_url", result.URL).
				Msg("Organization upsert failed, slot omitted")
			continue
		}
		organizations[i] = stored
		successful++

		// Every stint at this company gets its own edge; boomerang
		// employment produces distinct start dates and distinct rows.
		for _, exp := range stintsByURL[result.URL] {
			if _, err := s.orgs.LinkProfile(ctx, profile.ID, stored.ID, exp); err != nil {
				s.logger.Warn().
					Err(err).
					Str("request_id", requestID).
					Str("organization_id", stored.ID).
					Msg("Employment link failed")
				continue
			}
			linked++
		}
	}

	s.tracker.Update(requestID, func(st *models.IngestionStatus) {
		st.OrganizationsSuccessful = successful
		st.OrganizationsLinked = linked
	})

	return organizations
}

// deriveOrganizationURLs walks the experiences in order and collects the
// distinct normalized company page URLs, first seen first. Experience
// entries are grouped per URL so each employment stint can be linked.
func deriveOrganizationURLs(profile *models.Profile) ([]string, map[string][]models.Experience) {
	urls := make([]string, 0, len(profile.Experiences))
	byURL := make(map[string][]models.Experience, len(profile.Experiences))

	for _, exp := range profile.Experiences {
		if exp.CompanyLinkedInURL == "" {
			continue
		}
		normalized, err := common.NormalizeURL(exp.CompanyLinkedInURL)
		if err != nil {
			continue
		}
		if _, seen := byURL[normalized]; !seen {
			urls = append(urls, normalized)
		}
		byURL[normalized] = append(byURL[normalized], exp)
	}
	return urls, byURL
}

// setStage advances the tracked progress stage.
func (s *Service) setStage(requestID, stage string) {
	s.tracker.Update(requestID, func(st *models.IngestionStatus) {
		st.Stage = stage
		st.Step = models.StageStep(stage)
		st.TotalSteps = models.IngestionTotalSteps
	})
}

// fail marks the tracked request failed with a classification code.
func (s *Service) fail(requestID string, cause error) {
	code := classifyFailure(cause)
	s.tracker.Update(requestID, func(st *models.IngestionStatus) {
		st.State = models.IngestionStateFailed
		st.ErrorCode = code
		st.Error = cause.Error()
		now := time.Now().UTC()
		st.CompletedAt = &now
		st.DurationMs = now.Sub(st.StartedAt).Milliseconds()
	})
}

// classifyFailure maps a pipeline error to its caller-visible code.
func classifyFailure(err error) string {
	var upstream *models.UpstreamError
	switch {
	case models.IsIncompleteData(err):
		return models.ErrCodeAdapterIncomplete
	case models.IsRateLimited(err):
		return models.ErrCodeRateLimited
	case errors.As(err, &upstream):
		return models.ErrCodeUpstreamUnavailable
	default:
		return models.ErrCodeInternal
	}
}
