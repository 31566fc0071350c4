package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/persona/internal/models"
	"google.golang.org/genai"
)

// maxErrorExcerpt caps how much of a provider error string is stored on
// a failed scoring job.
const maxErrorExcerpt = 200

// ClassifyError maps a provider error onto a scoring failure
// classification. Transient conditions (timeout, 429, 5xx, network) are
// marked retryable; authentication, unknown model, and oversized content
// are terminal. Unknown errors default to retryable so the retry budget
// decides instead of a premature terminal verdict.
//
// Parameters:
//   - err: Error returned by an LLMService Complete call
//
// Returns:
//   - *models.ScoringError: Classification with code, message, and retryable flag
func ClassifyError(err error) *models.ScoringError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &models.ScoringError{
			Code:      models.ScoringErrLLMTimeout,
			Message:   "LLM request timed out: " + excerpt(err),
			Retryable: true,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &models.ScoringError{
			Code:      models.ScoringErrLLMUnavailable,
			Message:   "LLM request cancelled: " + excerpt(err),
			Retryable: true,
		}
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return classifyStatus(anthropicErr.StatusCode, err)
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return classifyStatus(geminiErr.Code, err)
	}

	// Fall back to string matching for wrapped transport errors the
	// SDKs surface as plain errors.
	if IsRateLimitError(err) {
		return rateLimitError(err)
	}
	lowered := strings.ToLower(err.Error())
	if strings.Contains(lowered, "deadline exceeded") || strings.Contains(lowered, "timeout") {
		return &models.ScoringError{
			Code:      models.ScoringErrLLMTimeout,
			Message:   "LLM request timed out: " + excerpt(err),
			Retryable: true,
		}
	}

	return &models.ScoringError{
		Code:      models.ScoringErrLLMUnavailable,
		Message:   "LLM request failed: " + excerpt(err),
		Retryable: true,
	}
}

// classifyStatus maps an HTTP status code from either provider SDK onto
// a scoring failure classification.
func classifyStatus(status int, err error) *models.ScoringError {
	switch {
	case status == 401 || status == 403:
		return &models.ScoringError{
			Code:      models.ScoringErrLLMAuthFailed,
			Message:   "LLM authentication failed: " + excerpt(err),
			Retryable: false,
		}
	case status == 404:
		return &models.ScoringError{
			Code:      models.ScoringErrLLMInvalidModel,
			Message:   "LLM model not found: " + excerpt(err),
			Retryable: false,
		}
	case status == 413:
		return &models.ScoringError{
			Code:      models.ScoringErrLLMContentTooLarge,
			Message:   "LLM content length exceeded: " + excerpt(err),
			Retryable: false,
		}
	case status == 429:
		return rateLimitError(err)
	case status >= 500:
		return &models.ScoringError{
			Code:      models.ScoringErrLLMUnavailable,
			Message:   "LLM endpoint unavailable: " + excerpt(err),
			Retryable: true,
		}
	default:
		// Remaining 4xx codes point at a malformed request on our side.
		return &models.ScoringError{
			Code:      models.ScoringErrInternal,
			Message:   "LLM rejected request: " + excerpt(err),
			Retryable: false,
		}
	}
}

// rateLimitError builds the rate limit classification, folding in the
// API-suggested retry delay when the provider names one.
func rateLimitError(err error) *models.ScoringError {
	message := "LLM rate limited: " + excerpt(err)
	if delay := ExtractRetryDelay(err); delay > 0 {
		message = fmt.Sprintf("LLM rate limited, provider suggests retry in %s: %s", delay.Round(time.Second), excerpt(err))
	}
	return &models.ScoringError{
		Code:      models.ScoringErrLLMRateLimited,
		Message:   message,
		Retryable: true,
	}
}

// IsRateLimitError checks if an error looks like a provider rate limit.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a provider
// error. Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// excerpt trims and caps a provider error string for storage on the job.
func excerpt(err error) string {
	s := strings.TrimSpace(err.Error())
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt] + "..."
	}
	return s
}
