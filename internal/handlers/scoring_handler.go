package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// ScoringHandler handles HTTP requests for scoring job creation, polling
// and retry.
type ScoringHandler struct {
	scoring interfaces.ScoringService
	logger  arbor.ILogger
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(scoring interfaces.ScoringService, logger arbor.ILogger) *ScoringHandler {
	return &ScoringHandler{
		scoring: scoring,
		logger:  logger,
	}
}

// ScoreProfileHandler handles POST /api/v1/profiles/{id}/score. The reply
// is the pending job snapshot; callers poll the job endpoint for the
// result.
func (h *ScoringHandler) ScoreProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	profileID := extractProfileID(r.URL.Path)
	if profileID == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Profile ID is required")
		return
	}

	// An empty body is a valid request; it resolves the default template.
	req := &models.ScoreRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && err != io.EOF {
		h.logger.Warn().Err(err).Msg("Failed to decode score request")
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid request body")
		return
	}

	job, err := h.scoring.CreateJob(r.Context(), profileID, req)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Str("profile_id", profileID).
		Msg("Scoring job created")
	WriteJSON(w, http.StatusOK, job)
}

// GetJobHandler handles GET /api/v1/scoring-jobs/{id}
func (h *ScoringHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractScoringJobID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Job ID is required")
		return
	}

	job, err := h.scoring.GetJob(r.Context(), id)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// RetryJobHandler handles POST /api/v1/scoring-jobs/{id}/retry
func (h *ScoringHandler) RetryJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	id := extractScoringJobID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Job ID is required")
		return
	}

	job, err := h.scoring.RetryJob(r.Context(), id)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Int("retry_count", job.RetryCount).
		Msg("Scoring job requeued")
	WriteJSON(w, http.StatusOK, job)
}

// ListProfileJobsHandler handles GET /api/v1/profiles/{id}/scoring-jobs
func (h *ScoringHandler) ListProfileJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	profileID := extractProfileID(r.URL.Path)
	if profileID == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Profile ID is required")
		return
	}

	jobs, err := h.scoring.ListJobsByProfile(r.Context(), profileID)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}
	if jobs == nil {
		jobs = []*models.ScoringJob{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func extractScoringJobID(path string) string {
	path = strings.TrimSuffix(path, "/")
	path = strings.TrimSuffix(path, "/retry")

	parts := strings.Split(path, "/")
	if len(parts) >= 5 && parts[1] == "api" && parts[2] == "v1" && parts[3] == "scoring-jobs" {
		return parts[4]
	}
	return ""
}
