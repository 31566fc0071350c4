package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/persona/internal/common"
	"github.com/ternarybob/persona/internal/interfaces"
	"github.com/ternarybob/persona/internal/models"
)

// HealthHandler exposes the three health check depths. Health routes skip
// API-key auth so load balancers can poll them.
type HealthHandler struct {
	health interfaces.HealthService
	logger arbor.ILogger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(health interfaces.HealthService, logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{
		health: health,
		logger: logger,
	}
}

// QuickHandler handles GET /health
func (h *HealthHandler) QuickHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  string(h.health.Quick()),
		"version": common.GetVersion(),
	})
}

// DetailedHandler handles GET /health/detailed
func (h *HealthHandler) DetailedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report := h.health.Detailed(r.Context())
	WriteJSON(w, healthStatusCode(report.Status), report)
}

// PipelineHandler handles GET /health/linkedin, the deep end-to-end probe
// against the external workflow service.
func (h *HealthHandler) PipelineHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report := h.health.PipelineProbe(r.Context())
	WriteJSON(w, healthStatusCode(report.Status), report)
}

// VersionHandler handles GET /api/v1/version
func (h *HealthHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// NotFoundHandler answers unmatched API paths with the standard envelope.
func (h *HealthHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, models.ErrCodeNotFound, "unknown endpoint: "+r.URL.Path)
}

// healthStatusCode maps a health state to an HTTP status. Degraded still
// answers 200 so orchestrators do not restart a working instance.
func healthStatusCode(state models.HealthState) int {
	if state == models.HealthStateUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
