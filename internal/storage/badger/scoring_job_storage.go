package badger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ScoringJobStorage implements the ScoringJobStorage interface for Badger.
//
// Badger transactions do not span the read-check-write needed for job
// claiming, so status transitions that race between workers (claim and
// requeue) are serialized through a storage-level mutex. All workers share
// this storage instance, which makes the mutex an effective compare-and-swap.
type ScoringJobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	// transitionMu serializes pending->processing and failed->pending
	// transitions.
	transitionMu sync.Mutex
}

// NewScoringJobStorage creates a new ScoringJobStorage instance
func NewScoringJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ScoringJobStorage {
	return &ScoringJobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ScoringJobStorage) SaveJob(ctx context.Context, job *models.ScoringJob) error {
	if job.ID == "" {
		return fmt.Errorf("scoring job ID is required")
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save scoring job: %w", err)
	}
	return nil
}

func (s *ScoringJobStorage) GetJob(ctx context.Context, id string) (*models.ScoringJob, error) {
	var job models.ScoringJob
	if err := s.db.Store().Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "scoring job", ID: id}
		}
		return nil, fmt.Errorf("failed to get scoring job: %w", err)
	}
	return &job, nil
}

func (s *ScoringJobStorage) ListJobs(ctx context.Context, opts *interfaces.ScoringJobListOptions) ([]*models.ScoringJob, error) {
	query := badgerhold.Where("ID").Ne("")

	if opts != nil {
		if opts.ProfileID != "" {
			query = query.And("ProfileID").Eq(opts.ProfileID).Index("ProfileID")
		}
		if opts.Status != "" {
			query = query.And("Status").Eq(opts.Status)
		}
		query = query.SortBy("CreatedAt").Reverse()
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
	}

	var jobs []models.ScoringJob
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list scoring jobs: %w", err)
	}

	result := make([]*models.ScoringJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

// NextPending returns the oldest pending job, or nil when none is queued.
func (s *ScoringJobStorage) NextPending(ctx context.Context) (*models.ScoringJob, error) {
	var jobs []models.ScoringJob
	query := badgerhold.Where("Status").Eq(models.ScoringStatusPending).SortBy("CreatedAt").Limit(1)
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// ClaimJob transitions a job from pending to processing. The read and write
// happen under the transition mutex so exactly one concurrent caller wins.
func (s *ScoringJobStorage) ClaimJob(ctx context.Context, jobID string) (bool, error) {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	var job models.ScoringJob
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, &models.NotFoundError{Resource: "scoring job", ID: jobID}
		}
		return false, fmt.Errorf("failed to load scoring job for claim: %w", err)
	}

	if job.Status != models.ScoringStatusPending {
		return false, nil
	}

	job.MarkProcessing()
	if err := s.db.Store().Update(jobID, &job); err != nil {
		return false, fmt.Errorf("failed to claim scoring job: %w", err)
	}
	return true, nil
}

// RequeueJob transitions a failed job back to pending for another attempt.
// Shares the transition mutex with ClaimJob so a requeue cannot interleave
// with a claim on the same job.
func (s *ScoringJobStorage) RequeueJob(ctx context.Context, jobID string) (*models.ScoringJob, error) {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	var job models.ScoringJob
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, &models.NotFoundError{Resource: "scoring job", ID: jobID}
		}
		return nil, fmt.Errorf("failed to load scoring job for requeue: %w", err)
	}

	if job.Status != models.ScoringStatusFailed {
		return nil, &models.NotRetryableError{JobID: jobID, Reason: fmt.Sprintf("job is %s, only failed jobs can be retried", job.Status)}
	}
	if job.Error != nil && !job.Error.Retryable {
		return nil, &models.NotRetryableError{JobID: jobID, Reason: fmt.Sprintf("error %s is permanent", job.Error.Code)}
	}
	if job.RetryCount >= models.MaxScoringRetries {
		return nil, &models.NotRetryableError{JobID: jobID, Reason: fmt.Sprintf("retry limit of %d reached", models.MaxScoringRetries)}
	}

	job.ResetForRetry()
	if err := s.db.Store().Update(jobID, &job); err != nil {
		return nil, fmt.Errorf("failed to requeue scoring job: %w", err)
	}
	return &job, nil
}

func (s *ScoringJobStorage) CountJobsByProfileSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	count, err := s.db.Store().Count(&models.ScoringJob{},
		badgerhold.Where("ProfileID").Eq(profileID).Index("ProfileID").And("CreatedAt").Ge(since))
	if err != nil {
		return 0, fmt.Errorf("failed to count recent jobs for profile: %w", err)
	}
	return int(count), nil
}

func (s *ScoringJobStorage) CountJobsByStatus(ctx context.Context, status models.ScoringJobStatus) (int, error) {
	count, err := s.db.Store().Count(&models.ScoringJob{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	return int(count), nil
}

func (s *ScoringJobStorage) CountJobsByTemplate(ctx context.Context, templateID string) (int, error) {
	count, err := s.db.Store().Count(&models.ScoringJob{}, badgerhold.Where("TemplateID").Eq(templateID))
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs by template: %w", err)
	}
	return int(count), nil
}

// DeleteTerminalJobsBefore removes completed and failed jobs whose terminal
// timestamp is before the cutoff. Pending and processing jobs are never
// touched regardless of age.
func (s *ScoringJobStorage) DeleteTerminalJobsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var jobs []models.ScoringJob
	query := badgerhold.Where("Status").Eq(models.ScoringStatusCompleted).
		Or(badgerhold.Where("Status").Eq(models.ScoringStatusFailed))
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return 0, fmt.Errorf("failed to query terminal jobs: %w", err)
	}

	removed := 0
	for i := range jobs {
		job := &jobs[i]
		terminalAt := job.CompletedAt
		if job.Status == models.ScoringStatusFailed {
			terminalAt = job.FailedAt
		}
		if terminalAt == nil || !terminalAt.Before(cutoff) {
			continue
		}
		if err := s.db.Store().Delete(job.ID, &models.ScoringJob{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return removed, fmt.Errorf("failed to delete expired job %s: %w", job.ID, err)
		}
		removed++
	}
	return removed, nil
}

// DeleteJobsByProfile removes every job for a profile regardless of
// status. Part of the profile delete cascade.
func (s *ScoringJobStorage) DeleteJobsByProfile(ctx context.Context, profileID string) (int, error) {
	query := badgerhold.Where("ProfileID").Eq(profileID).Index("ProfileID")

	count, err := s.db.Store().Count(&models.ScoringJob{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs for profile: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.ScoringJob{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete jobs for profile: %w", err)
	}
	return int(count), nil
}

func (s *ScoringJobStorage) ClearAll(ctx context.Context) error {
	return s.db.Store().DeleteMatching(&models.ScoringJob{}, nil)
}
