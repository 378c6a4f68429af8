package device

import "errors"

// Sentinel errors for device operations.
var (
	// ErrNotFound indicates the requested device does not exist.
	ErrNotFound = errors.New("device not found")

	// ErrAlreadyExists indicates a device with the same codename is
	// already registered.
	ErrAlreadyExists = errors.New("device already exists")

	// ErrVersionExists indicates the firmware version is already
	// published for the device.
	ErrVersionExists = errors.New("firmware version already exists")

	// ErrInvalidDevice indicates a device that failed validation.
	ErrInvalidDevice = errors.New("invalid device")
)
