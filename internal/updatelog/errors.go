package updatelog

import "errors"

// Sentinel errors for update-log operations.
var (
	// ErrNotFound indicates the requested update log does not exist.
	ErrNotFound = errors.New("update log not found")

	// ErrInvalidEnvelope indicates an inbound progress report that cannot
	// be correlated: it names neither a session id nor a device codename.
	ErrInvalidEnvelope = errors.New("invalid update-log envelope")
)
