package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// TemplateHandler handles HTTP requests for prompt template management.
type TemplateHandler struct {
	templates interfaces.TemplateService
	logger    arbor.ILogger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(templates interfaces.TemplateService, logger arbor.ILogger) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		logger:    logger,
	}
}

// ListTemplatesHandler handles GET /api/v1/templates with an optional
// category filter.
func (h *TemplateHandler) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	category := models.TemplateCategory(r.URL.Query().Get("category"))
	templates, err := h.templates.ListTemplates(r.Context(), category)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}
	if templates == nil {
		templates = []*models.PromptTemplate{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

// CreateTemplateHandler handles POST /api/v1/templates
func (h *TemplateHandler) CreateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode template request")
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid request body")
		return
	}

	template, err := h.templates.CreateTemplate(r.Context(), &req)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	h.logger.Info().
		Str("template_id", template.ID).
		Str("category", string(template.Category)).
		Int("version", template.Version).
		Msg("Template created")
	WriteJSON(w, http.StatusCreated, template)
}

// GetTemplateHandler handles GET /api/v1/templates/{id}
func (h *TemplateHandler) GetTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractTemplateID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Template ID is required")
		return
	}

	template, err := h.templates.GetTemplate(r.Context(), id)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	WriteJSON(w, http.StatusOK, template)
}

// UpdateTemplateHandler handles PUT /api/v1/templates/{id}
func (h *TemplateHandler) UpdateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	id := extractTemplateID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Template ID is required")
		return
	}

	var req models.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode template request")
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Invalid request body")
		return
	}

	template, err := h.templates.UpdateTemplate(r.Context(), id, &req)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	h.logger.Info().
		Str("template_id", template.ID).
		Int("version", template.Version).
		Msg("Template updated")
	WriteJSON(w, http.StatusOK, template)
}

// DeleteTemplateHandler handles DELETE /api/v1/templates/{id}. Templates
// referenced by historical jobs are deactivated rather than removed.
func (h *TemplateHandler) DeleteTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := extractTemplateID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Template ID is required")
		return
	}

	if err := h.templates.DeleteTemplate(r.Context(), id); err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	h.logger.Info().Str("template_id", id).Msg("Template deleted")
	w.WriteHeader(http.StatusNoContent)
}

func extractTemplateID(path string) string {
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) >= 5 && parts[1] == "api" && parts[2] == "v1" && parts[3] == "templates" {
		return parts[4]
	}
	return ""
}
