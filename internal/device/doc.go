// Package device manages the registry of firmware-updatable devices
// and their published firmware versions.
//
// A device is identified by its codename, derived from its location,
// type and id at registration time. The repository stores the
// registry in SQLite; the ScopeResolver answers the dashboard's
// "does this device have more than one firmware version" question
// from a cache so list rendering does not hit the database per row.
package device
