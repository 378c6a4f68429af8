package device

import (
	"time"

	"github.com/lokasync/lokasync-core/internal/codename"
)

// Device is one registered firmware-updatable unit.
type Device struct {
	Codename    string    `json:"device_codename"`
	Location    string    `json:"location"`
	Type        string    `json:"type"`
	DeviceID    string    `json:"device_id"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FirmwareVersion is one published firmware build for a device.
type FirmwareVersion struct {
	ID             int64     `json:"id"`
	DeviceCodename string    `json:"device_codename"`
	Version        string    `json:"version"`
	URL            string    `json:"url"`
	CreatedAt      time.Time `json:"created_at"`
}

// New builds a Device from its registration fields. The codename is
// derived from location, type and id; the normalized display forms are
// read back from it so the registry and the codename always agree.
func New(location, deviceType, id, description string) *Device {
	cn := codename.Encode(location, deviceType, id)
	parsed, _ := codename.Parse(cn)

	now := time.Now().UTC()
	return &Device{
		Codename:    cn,
		Location:    parsed.DisplayLocation(),
		Type:        parsed.DisplayType(),
		DeviceID:    parsed.ID,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
