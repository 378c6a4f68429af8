package device

import (
	"fmt"
	"regexp"
)

// Validation constants.
const (
	maxComponentLength   = 64
	maxDescriptionLength = 500
	componentPattern     = `^[a-zA-Z0-9][a-zA-Z0-9 \-]*$`
)

var componentRegex = regexp.MustCompile(componentPattern)

// ValidateRegistration checks the raw registration fields before a
// codename is derived from them. Underscores are rejected because the
// codename uses them as component separators.
func ValidateRegistration(location, deviceType, id, description string) error {
	fields := []struct {
		name  string
		value string
	}{
		{"location", location},
		{"type", deviceType},
		{"device_id", id},
	}

	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidDevice, f.name)
		}
		if len(f.value) > maxComponentLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidDevice, f.name, maxComponentLength)
		}
		if !componentRegex.MatchString(f.value) {
			return fmt.Errorf("%w: %s contains invalid characters", ErrInvalidDevice, f.name)
		}
	}

	if len(description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDevice, maxDescriptionLength)
	}

	return nil
}
