package api

import (
	"net/http"
	"strconv"

	"github.com/lokasync/lokasync-core/internal/audit"
	"github.com/lokasync/lokasync-core/internal/auth"
)

// recordAudit writes an audit entry for a mutating request. Failures
// are logged and never fail the request that triggered them.
func (s *Server) recordAudit(r *http.Request, action, entityType, entityID string, details map[string]any) {
	if s.audits == nil {
		return
	}

	entry := &audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if claims, ok := r.Context().Value(ctxKeyClaims).(*auth.Claims); ok {
		entry.Actor = claims.Subject
	}

	if err := s.audits.Record(r.Context(), entry); err != nil {
		s.logger.Warn("recording audit entry failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

// handleListAudit returns the audit trail, most recent first.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audits == nil {
		writeNotFound(w, "audit trail is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audits.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "listing audit entries failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
