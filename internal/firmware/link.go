// Package firmware validates firmware version strings and resolves
// shared storage links into URLs a device can download directly.
package firmware

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Sentinel errors for firmware link and version handling.
var (
	// ErrInvalidURL indicates a firmware URL that is not a usable
	// http(s) link.
	ErrInvalidURL = errors.New("invalid firmware url")

	// ErrInvalidVersion indicates a version string that is not of the
	// form major.minor.patch.
	ErrInvalidVersion = errors.New("invalid firmware version")
)

var versionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// driveFileRegex matches the file id inside a Google Drive viewer
// link, e.g. https://drive.google.com/file/d/<id>/view.
var driveFileRegex = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)

// ValidateVersion checks a firmware version string.
func ValidateVersion(version string) error {
	if !versionRegex.MatchString(version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

// ResolveURL validates a firmware link and rewrites shared Google
// Drive links into the direct-download form devices can fetch without
// a browser. Non-Drive http(s) URLs pass through unchanged.
//
// Recognized Drive forms:
//
//	https://drive.google.com/file/d/<id>/view?usp=sharing
//	https://drive.google.com/open?id=<id>
//	https://drive.google.com/uc?id=<id>&export=download (already direct)
func ResolveURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: no host", ErrInvalidURL)
	}

	if !strings.EqualFold(parsed.Host, "drive.google.com") {
		return raw, nil
	}

	id := driveFileID(parsed)
	if id == "" {
		return "", fmt.Errorf("%w: no file id in drive link", ErrInvalidURL)
	}
	return "https://drive.google.com/uc?id=" + id + "&export=download", nil
}

// driveFileID extracts the file id from either the path or the id
// query parameter.
func driveFileID(u *url.URL) string {
	if m := driveFileRegex.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return u.Query().Get("id")
}
