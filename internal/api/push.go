package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lokasync/lokasync-core/internal/audit"
	"github.com/lokasync/lokasync-core/internal/device"
	"github.com/lokasync/lokasync-core/internal/infrastructure/mqtt"
	"github.com/lokasync/lokasync-core/internal/updatelog"
)

// pushRequest is the payload for starting a firmware update.
// FirmwareVersion may be omitted when the device has exactly one
// published version.
type pushRequest struct {
	FirmwareVersion string `json:"firmware_version"`
}

// handlePush publishes an update command for a device.
//
// A fresh session id is generated per push; the device echoes it back
// in its progress reports, which is how the reconciler ties the update
// stream to this attempt.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	var req pushRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	if s.mqtt == nil {
		writeUnavailable(w, "transport not configured")
		return
	}

	if _, err := s.devices.Get(r.Context(), codename); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found: "+codename)
			return
		}
		s.logger.Error("getting device", "codename", codename, "error", err)
		writeInternalError(w, "failed to get device")
		return
	}

	target, ok := s.resolvePushVersion(w, r, codename, req.FirmwareVersion)
	if !ok {
		return // response already written
	}

	cmd := updatelog.PushCommand{
		DeviceCodename:  codename,
		FirmwareURL:     target.URL,
		FirmwareVersion: target.Version,
		SessionID:       s.sessions.NewID(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		s.logger.Error("encoding push command", "error", err)
		writeInternalError(w, "failed to encode push command")
		return
	}

	if err := s.mqtt.PublishUpdateCommand(payload); err != nil {
		switch {
		case errors.Is(err, mqtt.ErrNotConnected):
			writeUnavailable(w, "transport not connected")
		case errors.Is(err, mqtt.ErrPublishTimeout):
			writeError(w, http.StatusGatewayTimeout, ErrCodeUnavailable, "broker did not acknowledge the push")
		default:
			s.logger.Error("publishing push command", "codename", codename, "error", err)
			writeInternalError(w, "failed to publish push command")
		}
		return
	}

	s.logger.Info("firmware push sent",
		"codename", codename,
		"firmware_version", cmd.FirmwareVersion,
		"session_id", cmd.SessionID,
	)

	s.recordAudit(r, audit.ActionPush, audit.EntityDevice, codename, map[string]any{
		"firmware_version": cmd.FirmwareVersion,
		"session_id":       cmd.SessionID,
	})

	writeJSON(w, http.StatusAccepted, cmd)
}

// resolvePushVersion picks the firmware version to push. An explicit
// version must exist; with none given, a single-version device pushes
// its only version and a multi-version device gets a 400 telling the
// caller to choose. Writes the error response itself and returns
// ok=false on failure.
func (s *Server) resolvePushVersion(w http.ResponseWriter, r *http.Request, codename, requested string) (*device.FirmwareVersion, bool) {
	versions, err := s.devices.Versions(r.Context(), codename)
	if err != nil {
		s.logger.Error("listing firmware versions", "codename", codename, "error", err)
		writeInternalError(w, "failed to list firmware versions")
		return nil, false
	}
	if len(versions) == 0 {
		writeBadRequest(w, "device has no published firmware versions")
		return nil, false
	}

	if requested != "" {
		for i := range versions {
			if versions[i].Version == requested {
				return &versions[i], true
			}
		}
		writeNotFound(w, "firmware version not published: "+requested)
		return nil, false
	}

	if len(versions) > 1 {
		writeBadRequest(w, "device has multiple firmware versions, firmware_version is required")
		return nil, false
	}
	return &versions[0], true
}
