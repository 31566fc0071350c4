// -----------------------------------------------------------------------
// Scoring Job - one asynchronous LLM evaluation of a profile against a
// prompt; lifecycle pending -> processing -> completed | failed
// -----------------------------------------------------------------------

package models

import (
	"encoding/gob"
	"time"

	"github.com/google/uuid"
)

func init() {
	// Register the dynamic score value types with gob for BadgerDB
	// serialization. ParsedScore is whatever JSON object the prompt asked
	// for, so its values are generic JSON types.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
}

// ScoringJobStatus represents the state of a scoring job.
type ScoringJobStatus string

const (
	ScoringStatusPending    ScoringJobStatus = "pending"
	ScoringStatusProcessing ScoringJobStatus = "processing"
	ScoringStatusCompleted  ScoringJobStatus = "completed"
	ScoringStatusFailed     ScoringJobStatus = "failed"
)

const (
	// DefaultScoringModel is used when the caller supplies no model.
	DefaultScoringModel = "claude-sonnet-4-20250514"

	// DefaultScoringMaxTokens bounds the reply; score objects are small.
	DefaultScoringMaxTokens = 1024

	// MaxScoringMaxTokens is the hard ceiling a caller may request.
	MaxScoringMaxTokens = 8192

	// DefaultScoringTemperature keeps evaluations near-deterministic.
	DefaultScoringTemperature = 0.2

	// MaxScoringRetries caps explicit retries of a failed job.
	MaxScoringRetries = 5
)

// Scoring failure classification codes stored on ScoringError.Code.
const (
	ScoringErrLLMBadJSON         = "LLM_BAD_JSON"
	ScoringErrLLMTimeout         = "LLM_TIMEOUT"
	ScoringErrLLMRateLimited     = "LLM_RATE_LIMITED"
	ScoringErrLLMUnavailable     = "LLM_UNAVAILABLE"
	ScoringErrLLMAuthFailed      = "LLM_AUTH_FAILED"
	ScoringErrLLMInvalidModel    = "LLM_INVALID_MODEL"
	ScoringErrLLMContentTooLarge = "LLM_CONTENT_TOO_LARGE"
	ScoringErrInternal           = "SCORING_INTERNAL"
)

// ScoringJob is one evaluation request. Status transitions are monotonic:
// pending -> processing -> completed|failed, with an explicit retry as the
// only path back to pending. The processing claim must be compare-and-swap
// so two workers cannot both run the same job.
type ScoringJob struct {
	ID        string `json:"id" badgerhold:"key"`
	ProfileID string `json:"profile_id" badgerhold:"index"`

	// Input. Prompt holds the resolved evaluation prompt; TemplateID records
	// the template it came from when one was used.
	Prompt      string  `json:"prompt"`
	TemplateID  string  `json:"template_id,omitempty"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	Status     ScoringJobStatus `json:"status" badgerhold:"index"`
	RetryCount int              `json:"retry_count"`

	Result *ScoringResult `json:"result,omitempty"`
	Error  *ScoringError  `json:"error,omitempty"`

	// Timestamps (always UTC)
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScoringResult holds the successful outcome of a job.
type ScoringResult struct {
	RawResponse string                 `json:"raw_response"`
	ParsedScore map[string]interface{} `json:"parsed_score"`
	TokensUsed  int                    `json:"tokens_used"`
	ModelUsed   string                 `json:"model_used"`
}

// ScoringError classifies a failure and records whether a retry can help.
type ScoringError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// NewScoringJob creates a pending job with defaults applied for omitted
// model, max_tokens, and temperature.
func NewScoringJob(profileID, prompt string) *ScoringJob {
	now := time.Now().UTC()
	return &ScoringJob{
		ID:          uuid.New().String(),
		ProfileID:   profileID,
		Prompt:      prompt,
		Model:       DefaultScoringModel,
		MaxTokens:   DefaultScoringMaxTokens,
		Temperature: DefaultScoringTemperature,
		Status:      ScoringStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the caller-controlled inputs.
func (j *ScoringJob) Validate() error {
	if j.ProfileID == "" {
		return &ValidationError{Field: "profile_id", Message: "must not be empty"}
	}
	if j.Prompt == "" {
		return &ValidationError{Field: "prompt", Message: "must not be empty"}
	}
	if j.MaxTokens <= 0 || j.MaxTokens > MaxScoringMaxTokens {
		return &ValidationError{Field: "max_tokens", Message: "must be between 1 and 8192"}
	}
	if j.Temperature < 0.0 || j.Temperature > 1.0 {
		return &ValidationError{Field: "temperature", Message: "must be between 0.0 and 1.0"}
	}
	return nil
}

// MarkProcessing records the claim. Callers must only invoke this through
// the storage claim path so the pending check and the write are atomic.
func (j *ScoringJob) MarkProcessing() {
	now := time.Now().UTC()
	j.Status = ScoringStatusProcessing
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkCompleted stores the result and closes the job.
func (j *ScoringJob) MarkCompleted(result *ScoringResult) {
	now := time.Now().UTC()
	j.Status = ScoringStatusCompleted
	j.Result = result
	j.Error = nil
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed classifies the failure and closes the job.
func (j *ScoringJob) MarkFailed(code, message string, retryable bool) {
	now := time.Now().UTC()
	j.Status = ScoringStatusFailed
	j.Error = &ScoringError{Code: code, Message: message, Retryable: retryable}
	j.FailedAt = &now
	j.UpdatedAt = now
}

// ResetForRetry returns a failed job to pending and burns one retry.
func (j *ScoringJob) ResetForRetry() {
	j.Status = ScoringStatusPending
	j.RetryCount++
	j.Error = nil
	j.StartedAt = nil
	j.CompletedAt = nil
	j.FailedAt = nil
	j.UpdatedAt = time.Now().UTC()
}

// CanRetry reports whether an explicit retry is permitted. A job is
// retryable only while failed with a non-permanent error and retries
// remaining.
func (j *ScoringJob) CanRetry() bool {
	if j.Status != ScoringStatusFailed {
		return false
	}
	if j.Error != nil && !j.Error.Retryable {
		return false
	}
	return j.RetryCount < MaxScoringRetries
}

// IsTerminal reports whether the job reached a final state.
func (j *ScoringJob) IsTerminal() bool {
	return j.Status == ScoringStatusCompleted || j.Status == ScoringStatusFailed
}

// Clone returns a deep copy safe to hand to callers.
func (j *ScoringJob) Clone() *ScoringJob {
	clone := *j
	if j.Result != nil {
		result := *j.Result
		if j.Result.ParsedScore != nil {
			result.ParsedScore = make(map[string]interface{}, len(j.Result.ParsedScore))
			for k, v := range j.Result.ParsedScore {
				result.ParsedScore[k] = v
			}
		}
		clone.Result = &result
	}
	if j.Error != nil {
		e := *j.Error
		clone.Error = &e
	}
	return &clone
}
