package updatelog

import "time"

// Flash status values reported by device firmware. A record starts in
// progress and moves to exactly one terminal status.
const (
	StatusInProgress = "in progress"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// Record is one firmware update attempt, assembled from the partial
// progress envelopes a device publishes while updating.
//
// SessionID is the primary identity. Records created from a device
// report that carried no session id get a synthetic "local-" prefixed
// id until a later envelope supplies the real one.
//
// Device-reported timestamps (DownloadStartedAt and friends) are kept
// verbatim as strings: they participate in correlation by exact
// equality and reformatting them would break retransmission matching.
type Record struct {
	SessionID       string `json:"session_id"`
	DeviceCodename  string `json:"device_codename"`
	DeviceMAC       string `json:"device_mac,omitempty"`
	DeviceLocation  string `json:"device_location"`
	DeviceType      string `json:"device_type"`
	DeviceID        string `json:"device_id"`
	FirmwareVersion string `json:"firmware_version"`

	FirmwareSizeKB      float64 `json:"firmware_size_kb,omitempty"`
	DownloadStartedAt   string  `json:"download_started_at,omitempty"`
	BytesWritten        int64   `json:"bytes_written,omitempty"`
	DownloadDurationSec float64 `json:"download_duration_sec,omitempty"`
	DownloadSpeedKBps   float64 `json:"download_speed_kbps,omitempty"`
	DownloadCompletedAt string  `json:"download_completed_at,omitempty"`
	FlashCompletedAt    string  `json:"flash_completed_at,omitempty"`
	FlashStatus         string  `json:"flash_status"`

	CreatedAt time.Time `json:"created_at"`
}

// IsLocal reports whether the record still carries a synthetic id,
// meaning no envelope has named its session yet.
func (r *Record) IsLocal() bool {
	return len(r.SessionID) > len(localIDPrefix) && r.SessionID[:len(localIDPrefix)] == localIDPrefix
}

// Terminal reports whether the record has reached a final flash status.
func (r *Record) Terminal() bool {
	return r.FlashStatus == StatusSuccess || r.FlashStatus == StatusFailed
}

// PushCommand is the outbound payload published to the update topic to
// start an update on a device.
type PushCommand struct {
	DeviceCodename  string `json:"device_codename"`
	FirmwareURL     string `json:"firmware_url"`
	FirmwareVersion string `json:"firmware_version"`
	SessionID       string `json:"session_id"`
}
