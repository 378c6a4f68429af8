package updatelog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lokasync/lokasync-core/internal/codename"
)

// Envelope is one inbound progress report from a device. Every field is
// optional on the wire: firmware sends whichever fields it knows at
// that stage of the update, and retransmits whole envelopes after a
// reconnect. Pointers distinguish "absent" from zero values so the
// reconciler never clobbers known data with blanks.
type Envelope struct {
	SessionID           *string  `json:"session_id"`
	DeviceCodename      *string  `json:"device_codename"`
	DeviceMAC           *string  `json:"device_mac"`
	FirmwareVersion     *string  `json:"firmware_version"`
	FirmwareSizeKB      *float64 `json:"firmware_size_kb"`
	DownloadStartedAt   *string  `json:"download_started_at"`
	BytesWritten        *int64   `json:"bytes_written"`
	DownloadDurationSec *float64 `json:"download_duration_sec"`
	DownloadSpeedKBps   *float64 `json:"download_speed_kbps"`
	DownloadCompletedAt *string  `json:"download_completed_at"`
	FlashCompletedAt    *string  `json:"flash_completed_at"`
	FlashStatus         *string  `json:"flash_status"`
}

// ParseEnvelope decodes and validates a raw update-log payload.
//
// Returns:
//   - Envelope: Decoded progress report
//   - error: If the JSON is malformed, or the envelope carries neither
//     a session id nor a device codename (nothing to correlate on)
func ParseEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	if strOrEmpty(env.SessionID) == "" && strOrEmpty(env.DeviceCodename) == "" {
		return Envelope{}, fmt.Errorf("%w: no session_id or device_codename", ErrInvalidEnvelope)
	}

	if env.FlashStatus != nil {
		status := strings.ToLower(strings.TrimSpace(*env.FlashStatus))
		switch status {
		case StatusInProgress, StatusSuccess, StatusFailed:
			env.FlashStatus = &status
		default:
			return Envelope{}, fmt.Errorf("%w: unknown flash_status %q", ErrInvalidEnvelope, *env.FlashStatus)
		}
	}

	return env, nil
}

// mergeInto copies every present envelope field onto the record.
// Absent fields leave the record untouched, so a late retransmission
// of an early-stage envelope never erases completion data.
func (e Envelope) mergeInto(rec *Record) {
	if v := strOrEmpty(e.DeviceCodename); v != "" {
		rec.DeviceCodename = v
		if cn, err := codename.Parse(v); err == nil {
			rec.DeviceLocation = cn.DisplayLocation()
			rec.DeviceType = cn.DisplayType()
			rec.DeviceID = cn.ID
		}
	}
	if v := strOrEmpty(e.DeviceMAC); v != "" {
		rec.DeviceMAC = v
	}
	if v := strOrEmpty(e.FirmwareVersion); v != "" {
		rec.FirmwareVersion = v
	}
	if e.FirmwareSizeKB != nil {
		rec.FirmwareSizeKB = *e.FirmwareSizeKB
	}
	if v := strOrEmpty(e.DownloadStartedAt); v != "" {
		rec.DownloadStartedAt = v
	}
	if e.BytesWritten != nil {
		rec.BytesWritten = *e.BytesWritten
	}
	if e.DownloadDurationSec != nil {
		rec.DownloadDurationSec = *e.DownloadDurationSec
	}
	if e.DownloadSpeedKBps != nil {
		rec.DownloadSpeedKBps = *e.DownloadSpeedKBps
	}
	if v := strOrEmpty(e.DownloadCompletedAt); v != "" {
		rec.DownloadCompletedAt = v
	}
	if v := strOrEmpty(e.FlashCompletedAt); v != "" {
		rec.FlashCompletedAt = v
	}
	if e.FlashStatus != nil {
		rec.FlashStatus = *e.FlashStatus
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
