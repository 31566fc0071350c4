// -----------------------------------------------------------------------
// Typed errors shared across services and mapped to API error codes
// -----------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Caller-visible error codes. Handlers translate typed errors into these
// stable identifiers; they never change meaning between releases.
const (
	ErrCodeInvalidLinkedInURL   = "INVALID_LINKEDIN_URL"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
	ErrCodeOrganizationNotFound = "ORGANIZATION_NOT_FOUND"
	ErrCodeJobNotFound          = "JOB_NOT_FOUND"
	ErrCodeTemplateNotFound     = "TEMPLATE_NOT_FOUND"
	ErrCodeProfileExists        = "PROFILE_ALREADY_EXISTS"
	ErrCodeAdapterIncomplete    = "ADAPTER_INCOMPLETE"
	ErrCodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeJobNotRetryable      = "JOB_NOT_RETRYABLE"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInternal             = "INTERNAL"
)

// IncompleteDataError reports essential canonical fields missing from an
// upstream payload. MissingFields holds canonical paths (e.g. "full_name").
type IncompleteDataError struct {
	Entity        string
	MissingFields []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("incomplete %s payload: missing %s", e.Entity, strings.Join(e.MissingFields, ", "))
}

// NotFoundError identifies a missing resource by kind and id.
type NotFoundError struct {
	Resource string // "profile", "organization", "scoring job", "template"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// DuplicateProfileError signals an ingestion attempt for a URL that already
// has a profile row. Carries the existing id so callers can redirect.
type DuplicateProfileError struct {
	ExistingID string
	URL        string
}

func (e *DuplicateProfileError) Error() string {
	return fmt.Sprintf("profile already exists for %s (id: %s)", e.URL, e.ExistingID)
}

// ValidationError covers caller input that fails syntactic or range checks.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// UpstreamError wraps a failure from the workflow service or the LLM after
// retries are exhausted. Body holds an excerpt, never the full payload.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Retryable  bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure at %s (status %d): %s", e.Endpoint, e.StatusCode, e.Body)
}

// RateLimitError is raised by local limiters and by upstream 429 replies.
type RateLimitError struct {
	Scope      string // "api_key", "profile_scoring", "upstream"
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s), retry after %v", e.Scope, e.RetryAfter)
}

// NotRetryableError rejects a retry request on a job that is not failed or
// has exhausted its retry budget.
type NotRetryableError struct {
	JobID  string
	Reason string
}

func (e *NotRetryableError) Error() string {
	return fmt.Sprintf("job %s is not retryable: %s", e.JobID, e.Reason)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsIncompleteData reports whether err carries an IncompleteDataError.
func IsIncompleteData(err error) bool {
	var inc *IncompleteDataError
	return errors.As(err, &inc)
}

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
