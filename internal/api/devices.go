package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lokasync/lokasync-core/internal/audit"
	"github.com/lokasync/lokasync-core/internal/device"
	"github.com/lokasync/lokasync-core/internal/firmware"
)

// createDeviceRequest is the payload for registering a device.
type createDeviceRequest struct {
	Location    string `json:"location"`
	Type        string `json:"type"`
	DeviceID    string `json:"device_id"`
	Description string `json:"description"`
}

// updateDeviceRequest is the payload for editing a device.
type updateDeviceRequest struct {
	Description *string `json:"description"`
}

// addVersionRequest is the payload for publishing a firmware version.
type addVersionRequest struct {
	Version string `json:"firmware_version"`
	URL     string `json:"firmware_url"`
}

// deviceResponse decorates a registry entry with its version scope so
// the dashboard can decide whether to render a version picker.
type deviceResponse struct {
	device.Device
	VersionCount        int  `json:"version_count"`
	HasMultipleVersions bool `json:"has_multiple_versions"`
}

// handleListDevices returns all registered devices.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		resp := deviceResponse{Device: d}
		if s.scope != nil {
			count, err := s.scope.VersionCount(r.Context(), d.Codename)
			if err != nil {
				s.logger.Error("resolving version scope", "codename", d.Codename, "error", err)
				writeInternalError(w, "failed to resolve firmware versions")
				return
			}
			resp.VersionCount = count
			resp.HasMultipleVersions = count > 1
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

// handleCreateDevice registers a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := device.ValidateRegistration(req.Location, req.Type, req.DeviceID, req.Description); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	d := device.New(req.Location, req.Type, req.DeviceID, req.Description)
	if err := s.devices.Create(r.Context(), d); err != nil {
		if errors.Is(err, device.ErrAlreadyExists) {
			writeConflict(w, "device already registered: "+d.Codename)
			return
		}
		s.logger.Error("creating device", "codename", d.Codename, "error", err)
		writeInternalError(w, "failed to create device")
		return
	}

	s.recordAudit(r, audit.ActionCreate, audit.EntityDevice, d.Codename, map[string]any{
		"location":  d.Location,
		"type":      d.Type,
		"device_id": d.DeviceID,
	})

	writeJSON(w, http.StatusCreated, d)
}

// handleGetDevice returns one device with its firmware versions.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	d, err := s.devices.Get(r.Context(), codename)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found: "+codename)
			return
		}
		s.logger.Error("getting device", "codename", codename, "error", err)
		writeInternalError(w, "failed to get device")
		return
	}

	versions, err := s.devices.Versions(r.Context(), codename)
	if err != nil {
		s.logger.Error("listing firmware versions", "codename", codename, "error", err)
		writeInternalError(w, "failed to list firmware versions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device":            d,
		"firmware_versions": versions,
	})
}

// handleUpdateDevice edits a device's description. The codename and
// its components are immutable; re-register to change them.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Description == nil {
		writeBadRequest(w, "description is required")
		return
	}

	if err := s.devices.UpdateDescription(r.Context(), codename, *req.Description); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found: "+codename)
			return
		}
		s.logger.Error("updating device", "codename", codename, "error", err)
		writeInternalError(w, "failed to update device")
		return
	}

	s.recordAudit(r, audit.ActionUpdate, audit.EntityDevice, codename, nil)

	writeJSON(w, http.StatusOK, map[string]string{"device_codename": codename})
}

// handleDeleteDevice removes a device and its firmware versions.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	if err := s.devices.Delete(r.Context(), codename); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found: "+codename)
			return
		}
		s.logger.Error("deleting device", "codename", codename, "error", err)
		writeInternalError(w, "failed to delete device")
		return
	}

	if s.scope != nil {
		s.scope.Invalidate(codename)
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntityDevice, codename, nil)

	w.WriteHeader(http.StatusNoContent)
}

// handleListVersions returns a device's published firmware versions.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	if _, err := s.devices.Get(r.Context(), codename); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found: "+codename)
			return
		}
		s.logger.Error("getting device", "codename", codename, "error", err)
		writeInternalError(w, "failed to get device")
		return
	}

	versions, err := s.devices.Versions(r.Context(), codename)
	if err != nil {
		s.logger.Error("listing firmware versions", "codename", codename, "error", err)
		writeInternalError(w, "failed to list firmware versions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"firmware_versions": versions})
}

// handleAddVersion publishes a firmware version for a device. Shared
// storage links are resolved to direct-download form before storage.
func (s *Server) handleAddVersion(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")

	var req addVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := firmware.ValidateVersion(req.Version); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	url, err := firmware.ResolveURL(req.URL)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	v := &device.FirmwareVersion{
		DeviceCodename: codename,
		Version:        req.Version,
		URL:            url,
	}
	if err := s.devices.AddVersion(r.Context(), v); err != nil {
		switch {
		case errors.Is(err, device.ErrNotFound):
			writeNotFound(w, "device not found: "+codename)
		case errors.Is(err, device.ErrVersionExists):
			writeConflict(w, "firmware version already published: "+req.Version)
		default:
			s.logger.Error("adding firmware version", "codename", codename, "error", err)
			writeInternalError(w, "failed to add firmware version")
		}
		return
	}

	if s.scope != nil {
		s.scope.Invalidate(codename)
	}

	s.recordAudit(r, audit.ActionCreate, audit.EntityFirmware, codename, map[string]any{
		"firmware_version": v.Version,
		"firmware_url":     v.URL,
	})

	writeJSON(w, http.StatusCreated, v)
}

// handleDeleteVersion removes a single published firmware version.
// This is the "this version only" branch of the delete flow; removing
// the whole device (and with it every version) is handleDeleteDevice.
func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	codename := chi.URLParam(r, "codename")
	version := chi.URLParam(r, "version")

	if err := s.devices.DeleteVersion(r.Context(), codename, version); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "firmware version not published: "+version)
			return
		}
		s.logger.Error("deleting firmware version", "codename", codename, "version", version, "error", err)
		writeInternalError(w, "failed to delete firmware version")
		return
	}

	if s.scope != nil {
		s.scope.Invalidate(codename)
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntityFirmware, codename, map[string]any{
		"firmware_version": version,
	})

	w.WriteHeader(http.StatusNoContent)
}
