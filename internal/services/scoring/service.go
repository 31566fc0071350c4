// Package scoring runs asynchronous LLM evaluations of stored profiles.
// Jobs are created pending, claimed by a background worker pool through a
// compare-and-swap transition, executed against the configured provider,
// and finish completed or failed. A cron sweep removes terminal jobs past
// the retention window.
package scoring

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// Service implements the scoring job engine.
type Service struct {
	storage   interfaces.StorageManager
	templates interfaces.TemplateService
	llm       interfaces.LLMService
	config    *common.ScoringConfig
	logger    arbor.ILogger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	workers sync.WaitGroup
	sweeper *cron.Cron
}

var _ interfaces.ScoringService = (*Service)(nil)

// NewService creates a new scoring service. Start must be called before
// created jobs are processed.
func NewService(
	storage interfaces.StorageManager,
	templates interfaces.TemplateService,
	llm interfaces.LLMService,
	config *common.ScoringConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:   storage,
		templates: templates,
		llm:       llm,
		config:    config,
		logger:    logger,
	}
}

// CreateJob validates the request, applies the per-profile rate limit,
// resolves the prompt source and enqueues a pending job.
func (s *Service) CreateJob(ctx context.Context, profileID string, req *models.ScoreRequest) (*models.ScoringJob, error) {
	if profileID == "" {
		return nil, &models.ValidationError{Field: "profile_id", Message: "must not be empty"}
	}
	if req == nil {
		req = &models.ScoreRequest{}
	}

	// The job references the profile by id; reject targets that do not
	// exist rather than queueing a job doomed to fail.
	if _, err := s.storage.ProfileStorage().GetProfile(ctx, profileID); err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, profileID); err != nil {
		return nil, err
	}

	prompt, templateID, err := s.resolvePrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	job := models.NewScoringJob(profileID, prompt)
	job.TemplateID = templateID
	if req.Model != "" {
		job.Model = req.Model
	}
	if req.MaxTokens > 0 {
		job.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		job.Temperature = *req.Temperature
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.ScoringJobStorage().SaveJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("profile_id", profileID).
		Str("template_id", templateID).
		Str("model", job.Model).
		Msg("Scoring job created")

	return job.Clone(), nil
}

// GetJob returns a job by id.
func (s *Service) GetJob(ctx context.Context, id string) (*models.ScoringJob, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "must not be empty"}
	}
	return s.storage.ScoringJobStorage().GetJob(ctx, id)
}

// ListJobsByProfile returns the jobs created for a profile, newest first.
func (s *Service) ListJobsByProfile(ctx context.Context, profileID string) ([]*models.ScoringJob, error) {
	if profileID == "" {
		return nil, &models.ValidationError{Field: "profile_id", Message: "must not be empty"}
	}
	return s.storage.ScoringJobStorage().ListJobs(ctx, &interfaces.ScoringJobListOptions{
		ProfileID: profileID,
	})
}

// RetryJob re-queues a failed job. The storage transition enforces the
// retryable-error and retry-budget rules atomically.
func (s *Service) RetryJob(ctx context.Context, id string) (*models.ScoringJob, error) {
	if id == "" {
		return nil, &models.ValidationError{Field: "id", Message: "must not be empty"}
	}

	job, err := s.storage.ScoringJobStorage().RequeueJob(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("retry_count", job.RetryCount).
		Msg("Scoring job requeued for retry")

	return job, nil
}

// Start launches the worker pool and the retention sweep. Calling Start
// on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	workers := s.config.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.workers.Add(1)
		id := i
		common.SafeGo(s.logger, fmt.Sprintf("scoring-worker-%d", id), func() {
			defer s.workers.Done()
			s.runWorker(workerCtx, id)
		})
	}

	schedule := s.config.SweepSchedule
	if schedule == "" {
		schedule = "0 0 * * * *"
	}
	s.sweeper = cron.New(cron.WithSeconds())
	if _, err := s.sweeper.AddFunc(schedule, func() { s.sweep(context.Background()) }); err != nil {
		cancel()
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.sweeper.Start()

	s.started = true
	s.logger.Info().
		Int("workers", workers).
		Str("poll_interval", s.pollInterval().String()).
		Str("sweep_schedule", schedule).
		Msg("Scoring engine started")
	return nil
}

// Stop drains the worker pool. Blocks until in-flight jobs finish or the
// context expires; a timed-out stop leaves jobs in processing, which a
// later requeue or sweep handles.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	sweeper := s.sweeper
	s.mu.Unlock()

	if sweeper != nil {
		sweeper.Stop()
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Scoring engine stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Scoring engine stop timed out with workers still busy")
		return ctx.Err()
	}
}

// checkRateLimit enforces the per-profile creation cap over a sliding
// one-hour window. The count is read from storage so the limit survives
// restarts.
func (s *Service) checkRateLimit(ctx context.Context, profileID string) error {
	limit := s.config.JobsPerProfilePerHour
	if limit <= 0 {
		return nil
	}

	since := time.Now().UTC().Add(-time.Hour)
	count, err := s.storage.ScoringJobStorage().CountJobsByProfileSince(ctx, profileID, since)
	if err != nil {
		return err
	}
	if count >= limit {
		s.logger.Warn().
			Str("profile_id", profileID).
			Int("jobs_last_hour", count).
			Int("limit", limit).
			Msg("Per-profile scoring rate limit hit")
		return &models.RateLimitError{Scope: "profile_scoring", RetryAfter: time.Hour}
	}
	return nil
}

// resolvePrompt picks the prompt text for a job. Exactly one source
// applies: an inline prompt, a template id, or a category. An empty
// request resolves the newest active general template.
func (s *Service) resolvePrompt(ctx context.Context, req *models.ScoreRequest) (prompt, templateID string, err error) {
	inline := strings.TrimSpace(req.Prompt)
	if inline != "" {
		if req.TemplateID != "" || req.Category != "" {
			return "", "", &models.ValidationError{
				Field:   "prompt",
				Message: "prompt cannot be combined with template_id or category",
			}
		}
		return inline, "", nil
	}

	template, err := s.templates.ResolveForScoring(ctx, req.TemplateID, models.TemplateCategory(req.Category))
	if err != nil {
		return "", "", err
	}
	return template.Prompt, template.ID, nil
}

// sweep deletes completed and failed jobs older than the retention
// window.
func (s *Service) sweep(ctx context.Context) {
	days := s.config.RetentionDays
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	removed, err := s.storage.ScoringJobStorage().DeleteTerminalJobsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scoring retention sweep failed")
		return
	}
	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Scoring retention sweep removed expired jobs")
	}
}

func (s *Service) pollInterval() time.Duration {
	if s.config.PollInterval > 0 {
		return s.config.PollInterval
	}
	return 2 * time.Second
}

func (s *Service) requestTimeout() time.Duration {
	if s.config.RequestTimeout > 0 {
		return s.config.RequestTimeout
	}
	return 60 * time.Second
}
