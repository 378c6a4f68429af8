// Package updatelog correlates firmware update progress reports with
// update sessions and persists the resulting history.
//
// Devices publish progress envelopes over the broker while an update is
// running: one when the download starts, one when it completes, and one
// when flashing finishes. Each envelope is a partial snapshot, and
// firmware frequently retransmits the same envelope after a reconnect.
// The Reconciler folds that stream into exactly one Record per update
// attempt, matching first on session id and then on the attempt's
// natural key (device codename, firmware version, download start time).
//
// The SQLiteRepository is the durable side: it stores reconciled
// records, serves the paginated history API, and provides the distinct
// value sets used to populate filter dropdowns.
package updatelog
