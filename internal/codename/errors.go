package codename

import "errors"

// ErrMalformedIdentifier is returned when a codename string cannot be
// parsed into its location, type, and id components.
var ErrMalformedIdentifier = errors.New("codename: malformed identifier")
