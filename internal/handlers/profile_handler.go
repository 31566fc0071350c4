package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
	"github.com/ternarybob/persona/internal/services/profiles"
)

// ProfileHandler handles HTTP requests for profile ingestion, reads and
// deletion.
type ProfileHandler struct {
	ingestion interfaces.IngestionService
	profiles  interfaces.ProfileService
	logger    arbor.ILogger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(ingestion interfaces.IngestionService, profileService interfaces.ProfileService, logger arbor.ILogger) *ProfileHandler {
	return &ProfileHandler{
		ingestion: ingestion,
		profiles:  profileService,
		logger:    logger,
	}
}

// IngestProfileHandler handles POST /api/v1/profiles
func (h *ProfileHandler) IngestProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode ingest request")
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid request body")
		return
	}

	result, err := h.ingestion.Ingest(r.Context(), &req)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	h.logger.Info().
		Str("request_id", result.RequestID).
		Bool("async", result.Async).
		Msg("Profile ingestion accepted")
	WriteJSON(w, http.StatusCreated, result)
}

// ListProfilesHandler handles GET /api/v1/profiles
func (h *ProfileHandler) ListProfilesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	query, err := parseProfileListQuery(r)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	page, err := h.profiles.ListProfiles(r.Context(), query)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// GetProfileHandler handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractProfileID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Profile ID is required")
		return
	}

	enriched, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	if includeCompanies(r) {
		WriteJSON(w, http.StatusOK, enriched)
		return
	}
	WriteJSON(w, http.StatusOK, enriched.Profile)
}

// DeleteProfileHandler handles DELETE /api/v1/profiles/{id}
func (h *ProfileHandler) DeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := extractProfileID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Profile ID is required")
		return
	}

	if err := h.profiles.DeleteProfile(r.Context(), id); err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IngestionStatusHandler handles GET /api/v1/ingestions/{request_id}. Async
// ingestion callers poll this for progress until the tracker evicts the
// terminal record.
func (h *ProfileHandler) IngestionStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	requestID := extractIngestionRequestID(r.URL.Path)
	if requestID == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Request ID is required")
		return
	}

	status, ok := h.ingestion.Status(requestID)
	if !ok {
		WriteError(w, http.StatusNotFound, models.ErrCodeNotFound, "ingestion request not found: "+requestID)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// parseProfileListQuery reads the listing parameters. Absent limit falls
// back to the default page size; an explicit limit=0 is passed through as a
// count probe. Range and sort-key validation happens in the service.
func parseProfileListQuery(r *http.Request) (*models.ProfileListQuery, error) {
	q := r.URL.Query()
	query := &models.ProfileListQuery{
		LinkedInURL: q.Get("linkedin_url"),
		Name:        q.Get("name"),
		Company:     q.Get("company"),
		SortBy:      q.Get("sort_by"),
		SortDir:     q.Get("sort_order"),
		Limit:       profiles.DefaultListLimit,
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, &models.ValidationError{Field: "limit", Message: "must be an integer"}
		}
		query.Limit = limit
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, &models.ValidationError{Field: "offset", Message: "must be an integer"}
		}
		query.Offset = offset
	}

	return query, nil
}

func includeCompanies(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("include_companies"))
	return err == nil && v
}

// extractProfileID extracts the profile id from /api/v1/profiles/{id}
// paths, with any subresource suffix removed.
func extractProfileID(path string) string {
	path = strings.TrimSuffix(path, "/")
	path = strings.TrimSuffix(path, "/score")
	path = strings.TrimSuffix(path, "/scoring-jobs")

	parts := strings.Split(path, "/")
	if len(parts) >= 5 && parts[1] == "api" && parts[2] == "v1" && parts[3] == "profiles" {
		return parts[4]
	}
	return ""
}

func extractIngestionRequestID(path string) string {
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) >= 5 && parts[1] == "api" && parts[2] == "v1" && parts[3] == "ingestions" {
		return parts[4]
	}
	return ""
}
