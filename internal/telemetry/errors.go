package telemetry

import "errors"

// ErrInvalidReading indicates a monitoring payload that could not be
// normalized into a Reading.
var ErrInvalidReading = errors.New("invalid telemetry reading")
