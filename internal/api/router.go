package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// WebSocket event feed. Browsers cannot set headers on
		// WebSocket dials, so auth is a token query parameter
		// validated in the handler.
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Device registry
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{codename}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)

					r.Get("/versions", s.handleListVersions)
					r.Post("/versions", s.handleAddVersion)
					r.Delete("/versions/{version}", s.handleDeleteVersion)

					r.Post("/push", s.handlePush)
				})
			})

			// Update-log history
			r.Route("/logs", func(r chi.Router) {
				r.Get("/", s.handleListLogs)
				r.Get("/options", s.handleLogFilterOptions)
				r.Get("/summary", s.handleLogSummary)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", s.handleGetLog)
					r.Delete("/", s.handleDeleteLog)
				})
			})

			// Live telemetry
			r.Route("/monitoring", func(r chi.Router) {
				r.Get("/", s.handleListMonitoredDevices)
				r.Get("/{codename}", s.handleTelemetryHistory)
			})

			// Audit trail
			r.Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth returns the server health status and transport state.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	transport := "disabled"
	if s.mqtt != nil {
		transport = s.mqtt.State().String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"transport": transport,
	})
}
