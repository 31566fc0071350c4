package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/persona/internal/handlers"
	"github.com/ternarybob/persona/internal/models"
)

// withMiddleware wraps the router with middleware chain
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = s.rateLimitMiddleware(handler)
	handler = s.authMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// loggingMiddleware logs HTTP requests and responses
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Log request with query parameters
		logEvent := s.app.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr)

		// Add query parameters if present
		if r.URL.RawQuery != "" {
			logEvent.Str("query", r.URL.RawQuery)
		}

		logEvent.Msg("HTTP request")

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Call next handler
		next.ServeHTTP(rw, r)

		// Log response
		duration := time.Since(start)
		s.app.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("HTTP response")
	})
}

// corsMiddleware handles CORS headers for browser-based API consumers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow all origins for local development
		// In production, restrict to specific origins
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the X-API-Key header on /api/ routes. Health
// endpoints live outside /api/ so load balancers can poll them without a
// key. An empty key list disables authentication entirely.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	keys := make(map[string]struct{}, len(s.app.Config.Server.APIKeys))
	for _, k := range s.app.Config.Server.APIKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(keys) == 0 || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := keys[r.Header.Get("X-API-Key")]; !ok {
			s.app.Logger.Warn().
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Msg("Request rejected: missing or unknown API key")
			handlers.WriteError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "missing or unknown API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware enforces the per-key request budget on /api/ routes.
// Each configured key gets its own token bucket sized to a full hour so
// short bursts pass and sustained overuse is rejected with a Retry-After.
// With authentication disabled there are no keys to meter, so the
// middleware passes everything through.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	perHour := s.app.Config.Server.RequestsPerHour
	limiters := make(map[string]*rate.Limiter, len(s.app.Config.Server.APIKeys))
	if perHour > 0 {
		for _, k := range s.app.Config.Server.APIKeys {
			if k != "" {
				limiters[k] = rate.NewLimiter(rate.Limit(perHour)/3600, perHour)
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(limiters) == 0 || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		// Auth ran first, so the key is present and known.
		limiter, ok := limiters[r.Header.Get("X-API-Key")]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			seconds := int(delay.Seconds()) + 1
			s.app.Logger.Warn().
				Str("path", r.URL.Path).
				Int("retry_after_seconds", seconds).
				Msg("Request rejected: API key over rate limit")
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			handlers.WriteJSON(w, http.StatusTooManyRequests, &models.ErrorResponse{
				ErrorCode: models.ErrCodeRateLimited,
				Message:   "API key request budget exhausted",
				Details: map[string]interface{}{
					"scope":               "api_key",
					"retry_after_seconds": seconds,
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns 500 error
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.app.Logger.Error().
					Str("error", fmt.Sprintf("%v", err)).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				handlers.WriteError(w, http.StatusInternalServerError, models.ErrCodeInternal, "internal error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
