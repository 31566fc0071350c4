package interfaces

import (
	"context"

	"github.com/ternarybob/persona/internal/models"
)

// ScoringService manages the asynchronous profile scoring job lifecycle.
// Jobs are created pending, claimed by background workers, executed against
// an LLM provider, and finish completed or failed.
type ScoringService interface {
	// CreateJob validates the request, applies the per-profile rate limit,
	// resolves the prompt source and enqueues a pending job.
	CreateJob(ctx context.Context, profileID string, req *models.ScoreRequest) (*models.ScoringJob, error)

	// GetJob returns a job by id.
	GetJob(ctx context.Context, id string) (*models.ScoringJob, error)

	// ListJobsByProfile returns the jobs created for a profile, newest
	// first.
	ListJobsByProfile(ctx context.Context, profileID string) ([]*models.ScoringJob, error)

	// RetryJob re-queues a failed job. Only failed jobs with a retryable
	// error and remaining retry budget can be retried.
	RetryJob(ctx context.Context, id string) (*models.ScoringJob, error)

	// Start launches the worker pool and the retention sweep.
	Start(ctx context.Context) error

	// Stop drains the worker pool. Blocks until in-flight jobs finish or
	// the context expires.
	Stop(ctx context.Context) error
}
