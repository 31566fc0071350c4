package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

func TestScoringJobLifecycle(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	// 1. Create a pending job
	job := models.NewScoringJob("profile-1", "Evaluate this profile")
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	got, err := storage.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if got.Status != models.ScoringStatusPending {
		t.Errorf("Expected pending status, got %s", got.Status)
	}
	if got.Model != models.DefaultScoringModel {
		t.Errorf("Expected default model, got %s", got.Model)
	}

	// 2. The queue serves it as the next pending job
	next, err := storage.NextPending(ctx)
	if err != nil {
		t.Fatalf("Failed to fetch next pending: %v", err)
	}
	if next == nil || next.ID != job.ID {
		t.Fatalf("Expected job %s as next pending, got %+v", job.ID, next)
	}

	// 3. Claim it
	claimed, err := storage.ClaimJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to claim job: %v", err)
	}
	if !claimed {
		t.Fatal("Expected claim to succeed on a pending job")
	}

	got, err = storage.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get claimed job: %v", err)
	}
	if got.Status != models.ScoringStatusProcessing {
		t.Errorf("Expected processing status, got %s", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("Expected StartedAt to be set on claim")
	}

	// 4. Queue is now empty
	next, err = storage.NextPending(ctx)
	if err != nil {
		t.Fatalf("Failed to re-fetch next pending: %v", err)
	}
	if next != nil {
		t.Errorf("Expected empty queue, got job %s", next.ID)
	}

	// 5. Complete the job
	got.MarkCompleted(&models.ScoringResult{RawResponse: `{"score": 80}`, ParsedScore: map[string]interface{}{"score": float64(80)}})
	if err := storage.SaveJob(ctx, got); err != nil {
		t.Fatalf("Failed to save completed job: %v", err)
	}

	final, err := storage.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get final job: %v", err)
	}
	if final.Status != models.ScoringStatusCompleted {
		t.Errorf("Expected completed status, got %s", final.Status)
	}
	if final.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
	if final.Result == nil || final.Result.ParsedScore["score"] != float64(80) {
		t.Errorf("Unexpected result: %+v", final.Result)
	}
}

func TestClaimJob_ConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := models.NewScoringJob("profile-1", "Evaluate this profile")
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := storage.ClaimJob(ctx, job.ID)
			if err != nil {
				t.Errorf("Claim returned error: %v", err)
				return
			}
			wins <- claimed
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for claimed := range wins {
		if claimed {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly 1 winning claim, got %d", winners)
	}

	got, err := storage.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to get job after race: %v", err)
	}
	if got.Status != models.ScoringStatusProcessing {
		t.Errorf("Expected processing status after race, got %s", got.Status)
	}
}

func TestClaimJob_NonPendingLosesQuietly(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := models.NewScoringJob("profile-1", "prompt")
	job.MarkProcessing()
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	claimed, err := storage.ClaimJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if claimed {
		t.Error("Expected claim of a processing job to lose")
	}
}

func TestClaimJob_MissingJob(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())

	_, err := storage.ClaimJob(context.Background(), "missing")
	if !models.IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestRequeueJob(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	// Happy path: failed with a retryable error
	job := models.NewScoringJob("profile-1", "prompt")
	job.MarkProcessing()
	job.MarkFailed(models.ScoringErrLLMBadJSON, "response was not valid JSON", true)
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save failed job: %v", err)
	}

	requeued, err := storage.RequeueJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Failed to requeue job: %v", err)
	}
	if requeued.Status != models.ScoringStatusPending {
		t.Errorf("Expected pending after requeue, got %s", requeued.Status)
	}
	if requeued.RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", requeued.RetryCount)
	}
	if requeued.Error != nil || requeued.FailedAt != nil || requeued.StartedAt != nil {
		t.Errorf("Expected failure state cleared, got %+v", requeued)
	}

	// A pending job cannot be retried
	_, err = storage.RequeueJob(ctx, job.ID)
	var notRetryable *models.NotRetryableError
	if !errors.As(err, &notRetryable) {
		t.Errorf("Expected NotRetryableError for pending job, got %v", err)
	}
}

func TestRequeueJob_PermanentError(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := models.NewScoringJob("profile-1", "prompt")
	job.MarkProcessing()
	job.MarkFailed(models.ScoringErrLLMAuthFailed, "invalid API key", false)
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save failed job: %v", err)
	}

	_, err := storage.RequeueJob(ctx, job.ID)
	var notRetryable *models.NotRetryableError
	if !errors.As(err, &notRetryable) {
		t.Fatalf("Expected NotRetryableError for permanent failure, got %v", err)
	}
}

func TestRequeueJob_RetryBudgetSpent(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := models.NewScoringJob("profile-1", "prompt")
	job.MarkProcessing()
	job.MarkFailed(models.ScoringErrLLMTimeout, "deadline exceeded", true)
	job.RetryCount = models.MaxScoringRetries
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save exhausted job: %v", err)
	}

	_, err := storage.RequeueJob(ctx, job.ID)
	var notRetryable *models.NotRetryableError
	if !errors.As(err, &notRetryable) {
		t.Fatalf("Expected NotRetryableError at retry limit, got %v", err)
	}

	// One retry short of the cap is still allowed
	job.RetryCount = models.MaxScoringRetries - 1
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to reset retry count: %v", err)
	}
	requeued, err := storage.RequeueJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("Expected requeue below the cap to succeed: %v", err)
	}
	if requeued.RetryCount != models.MaxScoringRetries {
		t.Errorf("Expected retry count %d, got %d", models.MaxScoringRetries, requeued.RetryCount)
	}
}

func TestListJobs_FilterByProfileAndStatus(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		job := models.NewScoringJob("profile-1", fmt.Sprintf("prompt %d", i))
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := storage.SaveJob(ctx, job); err != nil {
			t.Fatalf("Failed to save job %d: %v", i, err)
		}
	}
	other := models.NewScoringJob("profile-2", "other prompt")
	other.MarkProcessing()
	if err := storage.SaveJob(ctx, other); err != nil {
		t.Fatalf("Failed to save other job: %v", err)
	}

	jobs, err := storage.ListJobs(ctx, &interfaces.ScoringJobListOptions{ProfileID: "profile-1", Limit: 10})
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs for profile-1, got %d", len(jobs))
	}
	// Newest first
	if jobs[0].Prompt != "prompt 2" {
		t.Errorf("Expected newest job first, got %q", jobs[0].Prompt)
	}

	jobs, err = storage.ListJobs(ctx, &interfaces.ScoringJobListOptions{Status: models.ScoringStatusProcessing, Limit: 10})
	if err != nil {
		t.Fatalf("Failed to list by status: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ProfileID != "profile-2" {
		t.Errorf("Expected only the processing job, got %d jobs", len(jobs))
	}
}

func TestCountJobsByProfileSince(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	ages := []time.Duration{-2 * time.Hour, -30 * time.Minute, -10 * time.Minute}
	for _, age := range ages {
		job := models.NewScoringJob("profile-1", "prompt")
		job.CreatedAt = now.Add(age)
		if err := storage.SaveJob(ctx, job); err != nil {
			t.Fatalf("Failed to save job: %v", err)
		}
	}

	count, err := storage.CountJobsByProfileSince(ctx, "profile-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to count recent jobs: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 jobs within the hour, got %d", count)
	}

	count, err = storage.CountJobsByProfileSince(ctx, "profile-other", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to count for other profile: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 jobs for unknown profile, got %d", count)
	}
}

func TestDeleteTerminalJobsBefore(t *testing.T) {
	db := newTestDB(t)
	storage := NewScoringJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.Add(-10 * 24 * time.Hour)

	// Old completed job, should be swept
	expired := models.NewScoringJob("profile-1", "prompt")
	expired.MarkProcessing()
	expired.MarkCompleted(&models.ScoringResult{RawResponse: "{}"})
	expired.CompletedAt = &old
	if err := storage.SaveJob(ctx, expired); err != nil {
		t.Fatalf("Failed to save expired job: %v", err)
	}

	// Old failed job, should be swept
	expiredFailed := models.NewScoringJob("profile-1", "prompt")
	expiredFailed.MarkProcessing()
	expiredFailed.MarkFailed(models.ScoringErrLLMTimeout, "deadline exceeded", true)
	expiredFailed.FailedAt = &old
	if err := storage.SaveJob(ctx, expiredFailed); err != nil {
		t.Fatalf("Failed to save expired failed job: %v", err)
	}

	// Recent completed job, kept
	recent := models.NewScoringJob("profile-1", "prompt")
	recent.MarkProcessing()
	recent.MarkCompleted(&models.ScoringResult{RawResponse: "{}"})
	if err := storage.SaveJob(ctx, recent); err != nil {
		t.Fatalf("Failed to save recent job: %v", err)
	}

	// Old pending job, kept regardless of age
	pending := models.NewScoringJob("profile-1", "prompt")
	pending.CreatedAt = old
	if err := storage.SaveJob(ctx, pending); err != nil {
		t.Fatalf("Failed to save pending job: %v", err)
	}

	removed, err := storage.DeleteTerminalJobsBefore(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to sweep terminal jobs: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 jobs swept, got %d", removed)
	}

	if _, err := storage.GetJob(ctx, expired.ID); !models.IsNotFound(err) {
		t.Errorf("Expected expired completed job to be gone, got %v", err)
	}
	if _, err := storage.GetJob(ctx, expiredFailed.ID); !models.IsNotFound(err) {
		t.Errorf("Expected expired failed job to be gone, got %v", err)
	}
	if _, err := storage.GetJob(ctx, recent.ID); err != nil {
		t.Errorf("Expected recent job to survive: %v", err)
	}
	if _, err := storage.GetJob(ctx, pending.ID); err != nil {
		t.Errorf("Expected pending job to survive: %v", err)
	}
}
