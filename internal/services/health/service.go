// Package health validates system health at three depths: process
// liveness, per-component readiness, and a live end-to-end probe of the
// external fetch pipeline. Every check is read-only; nothing a health
// call touches is ever persisted.
package health

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/ternarybob/persona/internal/services/adapter"
)

// profileKeyFields are the adapted profile fields counted toward probe
// completeness.
var profileKeyFields = []struct {
	name      string
	populated func(*models.Profile) bool
}{
	{"full_name", func(p *models.Profile) bool { return p.FullName != "" }},
	{"headline", func(p *models.Profile) bool { return p.Headline != "" }},
	{"about", func(p *models.Profile) bool { return p.About != "" }},
	{"city", func(p *models.Profile) bool { return p.City != "" }},
	{"country", func(p *models.Profile) bool { return p.Country != "" }},
	{"image_url", func(p *models.Profile) bool { return p.ImageURL != "" }},
	{"current_company", func(p *models.Profile) bool { return p.CurrentCompany != "" }},
	{"current_position", func(p *models.Profile) bool { return p.CurrentPosition != "" }},
	{"experiences", func(p *models.Profile) bool { return len(p.Experiences) > 0 }},
	{"educations", func(p *models.Profile) bool { return len(p.Educations) > 0 }},
}

// organizationKeyFields are the adapted organization fields counted
// toward probe completeness.
var organizationKeyFields = []struct {
	name      string
	populated func(*models.Organization) bool
}{
	{"name", func(o *models.Organization) bool { return o.Name != "" }},
	{"description", func(o *models.Organization) bool { return o.Description != "" }},
	{"website", func(o *models.Organization) bool { return o.Website != "" }},
	{"industries", func(o *models.Organization) bool { return len(o.Industries) > 0 }},
	{"employee_count", func(o *models.Organization) bool { return o.EmployeeCount > 0 || o.EmployeeRange != "" }},
	{"headquarters", func(o *models.Organization) bool { return o.Headquarters != nil }},
}

// Service implements the health checks.
type Service struct {
	storage  interfaces.StorageManager
	workflow interfaces.WorkflowClient
	tracker  interfaces.TrackerService
	config   *common.HealthConfig
	logger   arbor.ILogger

	startedAt time.Time
}

var _ interfaces.HealthService = (*Service)(nil)

// NewService creates a new health service. The storage manager is used
// for read-only counts in the detailed check; the probe path never
// touches it.
func NewService(
	storage interfaces.StorageManager,
	workflow interfaces.WorkflowClient,
	tracker interfaces.TrackerService,
	config *common.HealthConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:   storage,
		workflow:  workflow,
		tracker:   tracker,
		config:    config,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// Quick returns the basic liveness state. The process answering is the
// check; no dependencies are consulted.
func (s *Service) Quick() models.HealthState {
	return models.HealthStateHealthy
}

// Detailed checks storage, the scoring queue and the tracker with
// read-only operations and reports per-component state.
func (s *Service) Detailed(ctx context.Context) *models.HealthReport {
	report := &models.HealthReport{
		Status:        models.HealthStateHealthy,
		Version:       common.GetVersion(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Timestamp:     time.Now().UTC(),
		Components:    map[string]models.ComponentHealth{},
	}

	report.Components["storage"] = s.checkStorage(ctx)
	report.Components["scoring_queue"] = s.checkScoringQueue(ctx)
	report.Components["tracker"] = s.checkTracker()

	for _, component := range report.Components {
		report.Status = models.WorstState(report.Status, component.Status)
	}
	return report
}

// PipelineProbe fetches the configured public test pages through the
// external workflow, runs the adapter on the replies, and classifies
// latency and field completeness. Nothing fetched is persisted.
func (s *Service) PipelineProbe(ctx context.Context) *models.PipelineProbeReport {
	report := &models.PipelineProbeReport{
		Status:    models.HealthStateHealthy,
		Timestamp: time.Now().UTC(),
	}

	report.ProfileProbe = s.probeProfile(ctx)
	report.CompanyProbe = s.probeCompany(ctx)

	report.Status = models.WorstState(s.classifyProbe(report.ProfileProbe), s.classifyProbe(report.CompanyProbe))

	s.logger.Info().
		Str("status", string(report.Status)).
		Int64("profile_latency_ms", report.ProfileProbe.LatencyMs).
		Int64("company_latency_ms", report.CompanyProbe.LatencyMs).
		Msg("Pipeline probe finished")
	return report
}

func (s *Service) checkStorage(ctx context.Context) models.ComponentHealth {
	start := time.Now()

	profiles, err := s.storage.ProfileStorage().CountProfiles(ctx)
	if err != nil {
		return models.ComponentHealth{
			Status:    models.HealthStateUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   "profile count failed: " + err.Error(),
		}
	}
	organizations, err := s.storage.OrganizationStorage().CountOrganizations(ctx)
	if err != nil {
		return models.ComponentHealth{
			Status:    models.HealthStateUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   "organization count failed: " + err.Error(),
		}
	}

	return models.ComponentHealth{
		Status:    models.HealthStateHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Details: map[string]interface{}{
			"profiles":      profiles,
			"organizations": organizations,
		},
	}
}

func (s *Service) checkScoringQueue(ctx context.Context) models.ComponentHealth {
	start := time.Now()

	pending, err := s.storage.ScoringJobStorage().CountJobsByStatus(ctx, models.ScoringStatusPending)
	if err != nil {
		return models.ComponentHealth{
			Status:    models.HealthStateUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   "pending count failed: " + err.Error(),
		}
	}
	processing, err := s.storage.ScoringJobStorage().CountJobsByStatus(ctx, models.ScoringStatusProcessing)
	if err != nil {
		return models.ComponentHealth{
			Status:    models.HealthStateUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Message:   "processing count failed: " + err.Error(),
		}
	}

	return models.ComponentHealth{
		Status:    models.HealthStateHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Details: map[string]interface{}{
			"pending":    pending,
			"processing": processing,
		},
	}
}

func (s *Service) checkTracker() models.ComponentHealth {
	start := time.Now()
	stats := s.tracker.Stats()
	return models.ComponentHealth{
		Status:    models.HealthStateHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Details: map[string]interface{}{
			"running":   stats.Running,
			"completed": stats.Completed,
			"failed":    stats.Failed,
		},
	}
}

func (s *Service) probeProfile(ctx context.Context) *models.ProbeResult {
	url := s.config.TestProfileURL
	result := &models.ProbeResult{URL: url}
	if url == "" {
		result.Error = "no test profile URL configured"
		return result
	}

	start := time.Now()
	payload, err := s.workflow.FetchProfile(ctx, url)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	profile, err := adapter.ProfileFromPayload(payload)
	if err != nil {
		result.Error = err.Error()
		if incomplete, ok := err.(*models.IncompleteDataError); ok {
			result.MissingFields = incomplete.MissingFields
		}
		return result
	}

	result.Success = true
	result.Completeness, result.MissingFields = profileCompleteness(profile)
	return result
}

func (s *Service) probeCompany(ctx context.Context) *models.ProbeResult {
	url := s.config.TestCompanyURL
	result := &models.ProbeResult{URL: url}
	if url == "" {
		result.Error = "no test company URL configured"
		return result
	}

	start := time.Now()
	payload, err := s.workflow.FetchCompany(ctx, url)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	org, err := adapter.OrganizationFromPayload(payload)
	if err != nil {
		result.Error = err.Error()
		if incomplete, ok := err.(*models.IncompleteDataError); ok {
			result.MissingFields = incomplete.MissingFields
		}
		return result
	}

	result.Success = true
	result.Completeness, result.MissingFields = organizationCompleteness(org)
	return result
}

// classifyProbe maps one probe outcome onto a health state: failures are
// unhealthy, slow or sparse results degrade, everything else is healthy.
func (s *Service) classifyProbe(probe *models.ProbeResult) models.HealthState {
	if probe == nil || !probe.Success {
		return models.HealthStateUnhealthy
	}

	threshold := s.config.LatencyThreshold
	if threshold <= 0 {
		threshold = 5 * time.Second
	}
	minCompleteness := s.config.MinCompleteness
	if minCompleteness <= 0 {
		minCompleteness = 0.7
	}

	if probe.LatencyMs > threshold.Milliseconds() || probe.Completeness < minCompleteness {
		return models.HealthStateDegraded
	}
	return models.HealthStateHealthy
}

func profileCompleteness(profile *models.Profile) (float64, []string) {
	populated := 0
	var missing []string
	for _, field := range profileKeyFields {
		if field.populated(profile) {
			populated++
		} else {
			missing = append(missing, field.name)
		}
	}
	return float64(populated) / float64(len(profileKeyFields)), missing
}

func organizationCompleteness(org *models.Organization) (float64, []string) {
	populated := 0
	var missing []string
	for _, field := range organizationKeyFields {
		if field.populated(org) {
			populated++
		} else {
			missing = append(missing, field.name)
		}
	}
	return float64(populated) / float64(len(organizationKeyFields)), missing
}
