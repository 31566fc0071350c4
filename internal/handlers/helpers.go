package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/models"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard error envelope with a stable error code.
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, &models.ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
	})
}

// WriteServiceError translates a typed service error into the API envelope
// and status code. Errors no branch recognizes become a generic 500 so
// storage and provider internals never leak to callers.
func WriteServiceError(logger arbor.ILogger, w http.ResponseWriter, err error) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateProfileError
		incomplete *models.IncompleteDataError
		rateLimit  *models.RateLimitError
		noRetry    *models.NotRetryableError
		upstream   *models.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		code := models.ErrCodeValidation
		if validation.Field == "linkedin_url" {
			code = models.ErrCodeInvalidLinkedInURL
		}
		resp := &models.ErrorResponse{ErrorCode: code, Message: validation.Error()}
		if validation.Field != "" {
			resp.Details = map[string]interface{}{"field": validation.Field}
		}
		WriteJSON(w, http.StatusBadRequest, resp)

	case errors.As(err, &notFound):
		WriteJSON(w, http.StatusNotFound, &models.ErrorResponse{
			ErrorCode: notFoundCode(notFound.Resource),
			Message:   notFound.Error(),
		})

	case errors.As(err, &duplicate):
		WriteJSON(w, http.StatusConflict, &models.ErrorResponse{
			ErrorCode: models.ErrCodeProfileExists,
			Message:   duplicate.Error(),
			Details: map[string]interface{}{
				"existing_profile_id": duplicate.ExistingID,
			},
			Suggestions: []string{"GET /api/v1/profiles/" + duplicate.ExistingID},
		})

	case errors.As(err, &incomplete):
		WriteJSON(w, http.StatusUnprocessableEntity, &models.ErrorResponse{
			ErrorCode: models.ErrCodeAdapterIncomplete,
			Message:   incomplete.Error(),
			Details: map[string]interface{}{
				"entity":         incomplete.Entity,
				"missing_fields": incomplete.MissingFields,
			},
		})

	case errors.As(err, &rateLimit):
		seconds := int(rateLimit.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		WriteJSON(w, http.StatusTooManyRequests, &models.ErrorResponse{
			ErrorCode: models.ErrCodeRateLimited,
			Message:   rateLimit.Error(),
			Details: map[string]interface{}{
				"scope":               rateLimit.Scope,
				"retry_after_seconds": seconds,
			},
		})

	case errors.As(err, &noRetry):
		WriteJSON(w, http.StatusBadRequest, &models.ErrorResponse{
			ErrorCode: models.ErrCodeJobNotRetryable,
			Message:   noRetry.Error(),
		})

	case errors.As(err, &upstream):
		status := http.StatusBadGateway
		if upstream.Retryable {
			status = http.StatusServiceUnavailable
		}
		WriteJSON(w, status, &models.ErrorResponse{
			ErrorCode: models.ErrCodeUpstreamUnavailable,
			Message:   upstream.Error(),
			Details: map[string]interface{}{
				"endpoint":  upstream.Endpoint,
				"retryable": upstream.Retryable,
			},
		})

	default:
		if logger != nil {
			logger.Error().Err(err).Msg("Unhandled service error")
		}
		WriteError(w, http.StatusInternalServerError, models.ErrCodeInternal, "internal error")
	}
}

func notFoundCode(resource string) string {
	switch resource {
	case "organization":
		return models.ErrCodeOrganizationNotFound
	case "scoring job":
		return models.ErrCodeJobNotFound
	case "template":
		return models.ErrCodeTemplateNotFound
	default:
		return models.ErrCodeProfileNotFound
	}
}
