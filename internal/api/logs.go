package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lokasync/lokasync-core/internal/audit"
	"github.com/lokasync/lokasync-core/internal/updatelog"
)

// logPage is the paginated update-log history response. The envelope
// carries the filter option sets alongside the page so the dashboard
// can render its dropdowns from one request.
type logPage struct {
	Message       string                   `json:"message"`
	StatusCode    int                      `json:"status_code"`
	Page          int                      `json:"page"`
	PageSize      int                      `json:"page_size"`
	TotalData     int                      `json:"total_data"`
	TotalPage     int                      `json:"total_page"`
	FilterOptions *updatelog.FilterOptions `json:"filter_options"`
	Data          []updatelog.Record       `json:"data"`
}

// handleListLogs returns one page of update-log history, newest first.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := updatelog.Filter{
		DeviceCodename:  q.Get("device_codename"),
		FirmwareVersion: q.Get("firmware_version"),
		FlashStatus:     q.Get("flash_status"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	result, err := s.logs.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing update logs", "error", err)
		writeInternalError(w, "failed to list update logs")
		return
	}

	opts, err := s.logs.FilterOptions(r.Context())
	if err != nil {
		s.logger.Error("loading log filter options", "error", err)
		writeInternalError(w, "failed to load filter options")
		return
	}

	totalPage := result.Total / result.PageSize
	if result.Total%result.PageSize != 0 {
		totalPage++
	}

	writeJSON(w, http.StatusOK, logPage{
		Message:       "update logs fetched",
		StatusCode:    http.StatusOK,
		Page:          result.Page,
		PageSize:      result.PageSize,
		TotalData:     result.Total,
		TotalPage:     totalPage,
		FilterOptions: opts,
		Data:          result.Records,
	})
}

// logSummary tallies update sessions for dashboard summary cards.
type logSummary struct {
	TotalData  int `json:"total_data"`
	InProgress int `json:"in_progress"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
}

// handleLogSummary reports the reconciler's live in-memory view rather
// than a database count, so the numbers move as device envelopes
// arrive, before the next page fetch.
func (s *Server) handleLogSummary(w http.ResponseWriter, _ *http.Request) {
	var summary logSummary
	if s.reconciler != nil {
		summary.TotalData = s.reconciler.TotalCount()
		for _, rec := range s.reconciler.Snapshot() {
			switch rec.FlashStatus {
			case updatelog.StatusSuccess:
				summary.Success++
			case updatelog.StatusFailed:
				summary.Failed++
			default:
				summary.InProgress++
			}
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleLogFilterOptions returns the distinct filter values alone.
func (s *Server) handleLogFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.logs.FilterOptions(r.Context())
	if err != nil {
		s.logger.Error("loading log filter options", "error", err)
		writeInternalError(w, "failed to load filter options")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleGetLog returns one update log by session id.
func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	rec, err := s.logs.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, updatelog.ErrNotFound) {
			writeNotFound(w, "update log not found: "+sessionID)
			return
		}
		s.logger.Error("getting update log", "session_id", sessionID, "error", err)
		writeInternalError(w, "failed to get update log")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteLog removes one update log by session id.
func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.logs.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, updatelog.ErrNotFound) {
			writeNotFound(w, "update log not found: "+sessionID)
			return
		}
		s.logger.Error("deleting update log", "session_id", sessionID, "error", err)
		writeInternalError(w, "failed to delete update log")
		return
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntityUpdateLog, sessionID, nil)

	w.WriteHeader(http.StatusNoContent)
}
