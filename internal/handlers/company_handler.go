package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// CompanyHandler handles HTTP reads of stored organizations.
type CompanyHandler struct {
	profiles interfaces.ProfileService
	logger   arbor.ILogger
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(profileService interfaces.ProfileService, logger arbor.ILogger) *CompanyHandler {
	return &CompanyHandler{
		profiles: profileService,
		logger:   logger,
	}
}

// GetCompanyHandler handles GET /api/v1/companies/{id}
func (h *CompanyHandler) GetCompanyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractCompanyID(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, models.ErrCodeValidation, "Company ID is required")
		return
	}

	detail, err := h.profiles.GetOrganization(r.Context(), id)
	if err != nil {
		WriteServiceError(h.logger, w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

func extractCompanyID(path string) string {
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) >= 5 && parts[1] == "api" && parts[2] == "v1" && parts[3] == "companies" {
		return parts[4]
	}
	return ""
}
