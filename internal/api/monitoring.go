package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// handleListMonitoredDevices returns the codenames with recent
// telemetry, with each device's latest reading.
func (s *Server) handleListMonitoredDevices(w http.ResponseWriter, _ *http.Request) {
	if s.telemetry == nil {
		writeJSON(w, http.StatusOK, map[string]any{"devices": []any{}})
		return
	}

	codenames := s.telemetry.Devices()
	sort.Strings(codenames)

	out := make([]map[string]any, 0, len(codenames))
	for _, cn := range codenames {
		entry := map[string]any{"device_codename": cn}
		if latest, ok := s.telemetry.Latest(cn); ok {
			entry["latest"] = latest
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

// handleTelemetryHistory returns the held readings for one device,
// oldest first.
func (s *Server) handleTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	if s.telemetry == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"device_codename": codename,
			"readings":        []any{},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_codename": codename,
		"readings":        s.telemetry.History(codename),
	})
}
