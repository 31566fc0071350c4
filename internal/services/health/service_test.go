package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/ternarybob/persona/internal/services/tracking"
	"github.com/ternarybob/persona/internal/storage/badger"
)

type probeWorkflow struct {
	profilePayload models.RawPayload
	profileErr     error
	profileDelay   time.Duration
	companyPayload models.RawPayload
	companyErr     error
}

func (w *probeWorkflow) FetchProfile(ctx context.Context, url string) (models.RawPayload, error) {
	if w.profileDelay > 0 {
		time.Sleep(w.profileDelay)
	}
	return w.profilePayload, w.profileErr
}

func (w *probeWorkflow) FetchCompany(ctx context.Context, url string) (models.RawPayload, error) {
	return w.companyPayload, w.companyErr
}

func (w *probeWorkflow) FetchCompanies(ctx context.Context, urls []string) []interfaces.CompanyFetchResult {
	results := make([]interfaces.CompanyFetchResult, len(urls))
	for i, url := range urls {
		payload, err := w.FetchCompany(ctx, url)
		results[i] = interfaces.CompanyFetchResult{URL: url, Payload: payload, Err: err}
	}
	return results
}

func richProfilePayload() models.RawPayload {
	return models.RawPayload{
		"linkedin_id":  "jane123",
		"full_name":    "Jane Doe",
		"linkedin_url": "https://www.linkedin.com/in/janedoe/",
		"headline":     "VP Engineering",
		"about":        "Engineering leader.",
		"city":         "Sydney",
		"country":      "Australia",
		"image_url":    "https://cdn.example.com/jane.jpg",
		"experiences": []interface{}{
			map[string]interface{}{"title": "VP Engineering", "company": "Initech", "is_current": true},
		},
		"educations": []interface{}{
			map[string]interface{}{"school_name": "University of Sydney"},
		},
	}
}

func richCompanyPayload() models.RawPayload {
	return models.RawPayload{
		"name":           "Initech",
		"linkedin_url":   "https://www.linkedin.com/company/initech/",
		"description":    "Workflow software.",
		"website":        "https://initech.example.com",
		"industries":     []interface{}{"Software"},
		"employee_count": float64(350),
		"headquarters": map[string]interface{}{
			"city": "Sydney", "country": "Australia",
		},
	}
}

func testHealthConfig() *common.HealthConfig {
	return &common.HealthConfig{
		TestProfileURL:   "https://www.linkedin.com/in/satyanadella/",
		TestCompanyURL:   "https://www.linkedin.com/company/microsoft/",
		LatencyThreshold: 5 * time.Second,
		MinCompleteness:  0.7,
	}
}

func newTestService(t *testing.T, workflow interfaces.WorkflowClient, cfg *common.HealthConfig) (*Service, interfaces.StorageManager) {
	t.Helper()
	logger := arbor.NewLogger()
	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err, "Failed to open test storage")
	t.Cleanup(func() { manager.Close() })

	if cfg == nil {
		cfg = testHealthConfig()
	}
	tracker := tracking.NewTracker(&common.TrackerConfig{TTL: time.Hour, EvictionInterval: time.Minute}, logger)
	return NewService(manager, workflow, tracker, cfg, logger), manager
}

func TestQuick(t *testing.T) {
	svc, _ := newTestService(t, &probeWorkflow{}, nil)
	assert.Equal(t, models.HealthStateHealthy, svc.Quick())
}

func TestDetailed_ReportsComponents(t *testing.T) {
	svc, storage := newTestService(t, &probeWorkflow{}, nil)
	ctx := context.Background()

	profile := models.NewProfile()
	profile.FullName = "Jane Doe"
	require.NoError(t, storage.ProfileStorage().SaveProfile(ctx, profile))
	require.NoError(t, storage.ScoringJobStorage().SaveJob(ctx, models.NewScoringJob(profile.ID, "p")))

	report := svc.Detailed(ctx)
	assert.Equal(t, models.HealthStateHealthy, report.Status)
	assert.NotEmpty(t, report.Version)
	assert.NotZero(t, report.Timestamp)

	storageHealth, ok := report.Components["storage"]
	require.True(t, ok)
	assert.Equal(t, models.HealthStateHealthy, storageHealth.Status)
	assert.Equal(t, 1, storageHealth.Details["profiles"])

	queueHealth, ok := report.Components["scoring_queue"]
	require.True(t, ok)
	assert.Equal(t, 1, queueHealth.Details["pending"])

	_, ok = report.Components["tracker"]
	assert.True(t, ok)
}

func TestPipelineProbe_Healthy(t *testing.T) {
	workflow := &probeWorkflow{
		profilePayload: richProfilePayload(),
		companyPayload: richCompanyPayload(),
	}
	svc, _ := newTestService(t, workflow, nil)

	report := svc.PipelineProbe(context.Background())
	assert.Equal(t, models.HealthStateHealthy, report.Status)

	require.NotNil(t, report.ProfileProbe)
	assert.True(t, report.ProfileProbe.Success)
	assert.GreaterOrEqual(t, report.ProfileProbe.Completeness, 0.7)

	require.NotNil(t, report.CompanyProbe)
	assert.True(t, report.CompanyProbe.Success)
	assert.Equal(t, 1.0, report.CompanyProbe.Completeness)
}

func TestPipelineProbe_SparseDataDegrades(t *testing.T) {
	// Only the essentials, so most key fields are missing.
	workflow := &probeWorkflow{
		profilePayload: models.RawPayload{
			"linkedin_id":  "x",
			"full_name":    "Jane Doe",
			"linkedin_url": "https://www.linkedin.com/in/janedoe/",
		},
		companyPayload: richCompanyPayload(),
	}
	svc, _ := newTestService(t, workflow, nil)

	report := svc.PipelineProbe(context.Background())
	assert.Equal(t, models.HealthStateDegraded, report.Status)
	assert.True(t, report.ProfileProbe.Success)
	assert.Less(t, report.ProfileProbe.Completeness, 0.7)
	assert.Contains(t, report.ProfileProbe.MissingFields, "headline")
}

func TestPipelineProbe_FetchFailureIsUnhealthy(t *testing.T) {
	workflow := &probeWorkflow{
		profileErr:     fmt.Errorf("connection refused"),
		companyPayload: richCompanyPayload(),
	}
	svc, _ := newTestService(t, workflow, nil)

	report := svc.PipelineProbe(context.Background())
	assert.Equal(t, models.HealthStateUnhealthy, report.Status)
	assert.False(t, report.ProfileProbe.Success)
	assert.Contains(t, report.ProfileProbe.Error, "connection refused")
}

func TestPipelineProbe_AdapterRejectionIsUnhealthy(t *testing.T) {
	// Payload missing essential fields makes the adapter raise.
	workflow := &probeWorkflow{
		profilePayload: models.RawPayload{"headline": "No identity fields"},
		companyPayload: richCompanyPayload(),
	}
	svc, _ := newTestService(t, workflow, nil)

	report := svc.PipelineProbe(context.Background())
	assert.Equal(t, models.HealthStateUnhealthy, report.Status)
	assert.False(t, report.ProfileProbe.Success)
	assert.NotEmpty(t, report.ProfileProbe.MissingFields)
}

func TestPipelineProbe_SlowProbeDegrades(t *testing.T) {
	cfg := testHealthConfig()
	cfg.LatencyThreshold = time.Millisecond
	workflow := &probeWorkflow{
		profilePayload: richProfilePayload(),
		profileDelay:   20 * time.Millisecond,
		companyPayload: richCompanyPayload(),
	}
	svc, _ := newTestService(t, workflow, cfg)

	report := svc.PipelineProbe(context.Background())
	assert.Equal(t, models.HealthStateDegraded, report.Status)
}

func TestPipelineProbe_NeverWrites(t *testing.T) {
	workflow := &probeWorkflow{
		profilePayload: richProfilePayload(),
		companyPayload: richCompanyPayload(),
	}
	svc, storage := newTestService(t, workflow, nil)
	ctx := context.Background()

	before, err := storage.ProfileStorage().CountProfiles(ctx)
	require.NoError(t, err)
	orgsBefore, err := storage.OrganizationStorage().CountOrganizations(ctx)
	require.NoError(t, err)

	_ = svc.PipelineProbe(ctx)

	after, err := storage.ProfileStorage().CountProfiles(ctx)
	require.NoError(t, err)
	orgsAfter, err := storage.OrganizationStorage().CountOrganizations(ctx)
	require.NoError(t, err)

	assert.Equal(t, before, after, "probe must not persist profiles")
	assert.Equal(t, orgsBefore, orgsAfter, "probe must not persist organizations")
}
