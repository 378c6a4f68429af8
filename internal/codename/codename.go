// Package codename derives and parses the stable string identity of a
// device.
//
// A codename encodes a device's location, type, and id into a single
// canonical token of the form "location_type_id". It is the correlation
// key used on every MQTT topic payload and database row, so encoding and
// parsing must be mutually inverse: the dashboard registers a device from
// human-entered fields, and the device echoes the codename back verbatim
// in every update-log and telemetry envelope.
//
// Normalization rules:
//   - each component is lowercased and trimmed
//   - runs of whitespace collapse to a single hyphen
//   - components are joined with underscores
//
// Example: ("Cibubur SayuranPagi", "Pembibitan", "1A") encodes to
// "cibubur-sayuranpagi_pembibitan_1a".
package codename

import (
	"strings"
)

// separator joins the three codename components.
const separator = "_"

// minSegments is the minimum number of underscore-delimited segments a
// parseable codename must contain (location, type, id).
const minSegments = 3

// Codename is the parsed identity of a device.
//
// Components are stored in canonical form (lowercase, hyphenated).
// A Codename is immutable once constructed; all methods are value
// receivers.
type Codename struct {
	Location string
	Type     string
	ID       string
}

// Encode builds the canonical codename string from raw component values.
//
// Encode is pure and total: any input produces a string, with each
// component lowercased, trimmed, and whitespace-collapsed to hyphens.
// Components that legitimately contain hyphens pass through unchanged.
func Encode(location, deviceType, id string) string {
	return strings.Join([]string{
		normalize(location),
		normalize(deviceType),
		normalize(id),
	}, separator)
}

// Parse splits a codename string back into its components.
//
// A valid codename has at least three underscore-delimited segments.
// A fourth or later segment is folded back into the id by rejoining with
// underscores, tolerating ids that legitimately contain them.
//
// Returns ErrMalformedIdentifier when fewer than three segments are
// present or any segment is empty.
func Parse(s string) (Codename, error) {
	segments := strings.Split(s, separator)
	if len(segments) < minSegments {
		return Codename{}, ErrMalformedIdentifier
	}
	for _, seg := range segments {
		if seg == "" {
			return Codename{}, ErrMalformedIdentifier
		}
	}

	return Codename{
		Location: segments[0],
		Type:     segments[1],
		ID:       strings.Join(segments[2:], separator),
	}, nil
}

// String returns the canonical serialized form.
func (c Codename) String() string {
	return c.Location + separator + c.Type + separator + c.ID
}

// DisplayLocation returns the location with hyphen substitution reversed
// for UI display ("cibubur-sayuranpagi" → "cibubur sayuranpagi").
func (c Codename) DisplayLocation() string {
	return display(c.Location)
}

// DisplayType returns the device type formatted for UI display.
func (c Codename) DisplayType() string {
	return display(c.Type)
}

// normalize canonicalizes one human-entered component: lowercase, trim,
// and collapse whitespace runs to a single hyphen.
func normalize(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, "-")
}

// display reverses the hyphen substitution applied by normalize.
func display(s string) string {
	return strings.ReplaceAll(s, "-", " ")
}
