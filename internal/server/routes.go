package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health routes live outside /api/ so they bypass authentication and
	// rate limiting; load balancers and uptime monitors poll them.
	mux.HandleFunc("/health", s.app.HealthHandler.QuickHandler)
	mux.HandleFunc("/health/detailed", s.app.HealthHandler.DetailedHandler)
	mux.HandleFunc("/health/linkedin", s.app.HealthHandler.PipelineHandler)

	// API routes - Profiles
	mux.HandleFunc("/api/v1/profiles", s.handleProfilesRoute) // GET (list), POST (ingest)
	mux.HandleFunc("/api/v1/profiles/", s.handleProfileRoutes)

	// API routes - Companies (read-only; written during ingestion)
	mux.HandleFunc("/api/v1/companies/", s.app.CompanyHandler.GetCompanyHandler)

	// API routes - Scoring jobs
	mux.HandleFunc("/api/v1/scoring-jobs/", s.handleScoringJobRoutes)

	// API routes - Prompt templates
	mux.HandleFunc("/api/v1/templates", s.handleTemplatesRoute) // GET (list), POST (create)
	mux.HandleFunc("/api/v1/templates/", s.handleTemplateRoutes)

	// API routes - Ingestion status (async ingest polling)
	mux.HandleFunc("/api/v1/ingestions/", s.app.ProfileHandler.IngestionStatusHandler)

	// API routes - System
	mux.HandleFunc("/api/v1/version", s.app.HealthHandler.VersionHandler)
	mux.HandleFunc("/api/v1/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.HealthHandler.NotFoundHandler)

	return mux
}

// handleProfilesRoute routes /api/v1/profiles requests (list and ingest)
func (s *Server) handleProfilesRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.ProfileHandler.ListProfilesHandler,
		s.app.ProfileHandler.IngestProfileHandler)
}

// handleProfileRoutes routes /api/v1/profiles/{id} requests and the scoring
// subresources nested under a profile.
func (s *Server) handleProfileRoutes(w http.ResponseWriter, r *http.Request) {
	// POST /api/v1/profiles/{id}/score
	// GET  /api/v1/profiles/{id}/scoring-jobs
	handled := RouteByPathSuffix(w, r, "/api/v1/profiles/", []PathSuffixRouter{
		{Suffix: "/score", Handler: s.app.ScoringHandler.ScoreProfileHandler},
		{Suffix: "/scoring-jobs", Handler: s.app.ScoringHandler.ListProfileJobsHandler},
	})
	if handled {
		return
	}

	// GET/DELETE /api/v1/profiles/{id}
	RouteResourceItem(w, r,
		s.app.ProfileHandler.GetProfileHandler,
		nil,
		s.app.ProfileHandler.DeleteProfileHandler)
}

// handleScoringJobRoutes routes /api/v1/scoring-jobs/{id} requests
func (s *Server) handleScoringJobRoutes(w http.ResponseWriter, r *http.Request) {
	// POST /api/v1/scoring-jobs/{id}/retry
	handled := RouteByPathSuffix(w, r, "/api/v1/scoring-jobs/", []PathSuffixRouter{
		{Suffix: "/retry", Handler: s.app.ScoringHandler.RetryJobHandler},
	})
	if handled {
		return
	}

	// GET /api/v1/scoring-jobs/{id}
	RouteByMethod(w, r, MethodRouter{
		"GET": s.app.ScoringHandler.GetJobHandler,
	})
}

// handleTemplatesRoute routes /api/v1/templates requests (list and create)
func (s *Server) handleTemplatesRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.TemplateHandler.ListTemplatesHandler,
		s.app.TemplateHandler.CreateTemplateHandler)
}

// handleTemplateRoutes routes /api/v1/templates/{id} requests
func (s *Server) handleTemplateRoutes(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r,
		s.app.TemplateHandler.GetTemplateHandler,
		s.app.TemplateHandler.UpdateTemplateHandler,
		s.app.TemplateHandler.DeleteTemplateHandler)
}
