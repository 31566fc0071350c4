package models

import (
	"testing"
)

// TestScoringJob_Lifecycle verifies the pending -> processing -> completed path
func TestScoringJob_Lifecycle(t *testing.T) {
	job := NewScoringJob("profile-1", "Score this profile.")

	if job.Status != ScoringStatusPending {
		t.Fatalf("new job status = %s, want pending", job.Status)
	}
	if job.Model != DefaultScoringModel {
		t.Errorf("default model not applied: %s", job.Model)
	}
	if job.IsTerminal() {
		t.Error("pending job reported terminal")
	}

	job.MarkProcessing()
	if job.Status != ScoringStatusProcessing {
		t.Fatalf("status after claim = %s, want processing", job.Status)
	}
	if job.StartedAt == nil {
		t.Fatal("started_at not set on claim")
	}

	result := &ScoringResult{
		RawResponse: `{"tech": 8}`,
		ParsedScore: map[string]interface{}{"tech": float64(8)},
		TokensUsed:  120,
		ModelUsed:   DefaultScoringModel,
	}
	job.MarkCompleted(result)

	if job.Status != ScoringStatusCompleted {
		t.Fatalf("status after completion = %s, want completed", job.Status)
	}
	if job.Result == nil {
		t.Fatal("completed job must carry a result")
	}
	if job.Error != nil {
		t.Error("completed job must not carry an error")
	}
	if !job.IsTerminal() {
		t.Error("completed job not reported terminal")
	}
	if job.CompletedAt == nil || job.CompletedAt.Before(*job.StartedAt) {
		t.Error("completed_at must not precede started_at")
	}
	if job.StartedAt.Before(job.CreatedAt) {
		t.Error("started_at must follow created_at")
	}
}

// TestScoringJob_FailureAndRetry verifies the failed path and retry budget
func TestScoringJob_FailureAndRetry(t *testing.T) {
	job := NewScoringJob("profile-1", "Score this profile.")
	job.MarkProcessing()
	job.MarkFailed(ScoringErrLLMTimeout, "request timed out", true)

	if job.Status != ScoringStatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if job.Error == nil || job.Error.Message == "" {
		t.Fatal("failed job must carry a non-empty error")
	}
	if !job.Error.Retryable {
		t.Error("timeout failure should be retryable")
	}
	if job.FailedAt == nil {
		t.Error("failed_at not set")
	}
	if !job.CanRetry() {
		t.Fatal("failed job under retry cap must be retryable")
	}

	job.ResetForRetry()
	if job.Status != ScoringStatusPending {
		t.Fatalf("status after retry = %s, want pending", job.Status)
	}
	if job.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", job.RetryCount)
	}
	if job.StartedAt != nil || job.FailedAt != nil {
		t.Error("retry must clear phase timestamps")
	}
	if job.Error != nil {
		t.Error("retry must clear the previous error")
	}
}

// TestScoringJob_RetryCap verifies retries stop at the cap
func TestScoringJob_RetryCap(t *testing.T) {
	job := NewScoringJob("profile-1", "Score this profile.")
	job.MarkFailed(ScoringErrLLMUnavailable, "upstream 503", true)
	job.RetryCount = MaxScoringRetries

	if job.CanRetry() {
		t.Errorf("job with retry_count=%d must not be retryable", MaxScoringRetries)
	}

	job.RetryCount = MaxScoringRetries - 1
	if !job.CanRetry() {
		t.Errorf("job with retry_count=%d should be retryable", MaxScoringRetries-1)
	}
}

// TestScoringJob_CanRetryRequiresFailedStatus verifies non-failed jobs reject retry
func TestScoringJob_CanRetryRequiresFailedStatus(t *testing.T) {
	for _, status := range []ScoringJobStatus{ScoringStatusPending, ScoringStatusProcessing, ScoringStatusCompleted} {
		job := NewScoringJob("profile-1", "Score this profile.")
		job.Status = status
		if job.CanRetry() {
			t.Errorf("job with status %s must not be retryable", status)
		}
	}
}

// TestScoringJob_Validate verifies input bounds
func TestScoringJob_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ScoringJob)
		shouldError bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(j *ScoringJob) {},
		},
		{
			name:        "empty prompt",
			mutate:      func(j *ScoringJob) { j.Prompt = "" },
			shouldError: true,
		},
		{
			name:        "empty profile id",
			mutate:      func(j *ScoringJob) { j.ProfileID = "" },
			shouldError: true,
		},
		{
			name:        "max tokens over cap",
			mutate:      func(j *ScoringJob) { j.MaxTokens = MaxScoringMaxTokens + 1 },
			shouldError: true,
		},
		{
			name:        "zero max tokens",
			mutate:      func(j *ScoringJob) { j.MaxTokens = 0 },
			shouldError: true,
		},
		{
			name:        "temperature above one",
			mutate:      func(j *ScoringJob) { j.Temperature = 1.5 },
			shouldError: true,
		},
		{
			name:        "negative temperature",
			mutate:      func(j *ScoringJob) { j.Temperature = -0.1 },
			shouldError: true,
		},
		{
			name:   "temperature at bounds",
			mutate: func(j *ScoringJob) { j.Temperature = 1.0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewScoringJob("profile-1", "Score this profile.")
			tt.mutate(job)
			err := job.Validate()
			if tt.shouldError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestEdgeKey verifies month renderings collapse onto one composite key
func TestEdgeKey(t *testing.T) {
	a := EdgeKey("p1", "o1", 2020, "Mar")
	b := EdgeKey("p1", "o1", 2020, "3")
	if a != b {
		t.Errorf("equivalent months produced different keys: %q vs %q", a, b)
	}

	c := EdgeKey("p1", "o1", 2021, "Mar")
	if a == c {
		t.Error("different start years must produce different keys")
	}

	d := EdgeKey("p1", "o1", 0, "")
	e := EdgeKey("p1", "o1", 0, "")
	if d != e {
		t.Error("absent dates must still key deterministically")
	}
}
