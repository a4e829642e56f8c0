package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nwalker85/appsentry/internal/history"
)

// healthCheckTimeout bounds each subsystem check within a /health request.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/runs", s.handleListRuns)
	})

	return r
}

// handleHealth reports the supervisor's own health plus each attached
// subsystem's. Subsystem failures degrade the status but keep HTTP 200;
// the supervisor itself is still working.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.health))

	for name, checker := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		if err := checker.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
		} else {
			components[name] = "ok"
		}
		cancel()
	}

	resp := map[string]any{
		"status":  status,
		"version": s.version,
	}
	if len(components) > 0 {
		resp["components"] = components
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatus returns the current supervision snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Stats())
}

// handleListRuns returns the recorded run history, most recent first.
//
// Query parameters: limit, offset, crashes (crashes=true filters to nonzero
// exit codes).
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, history.ListResult{Runs: []history.Run{}})
		return
	}

	filter := history.Filter{
		CrashesOnly: r.URL.Query().Get("crashes") == "true",
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing runs failed", "error", err)
		writeInternalError(w, "listing runs failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
