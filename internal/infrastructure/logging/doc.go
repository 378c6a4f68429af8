// Package logging provides structured logging for LokaSync Core.
//
// Built on the standard library's log/slog, it adds:
//   - Configuration-driven format (JSON or text) and level
//   - Default service/version attributes on every record
//   - A Default() logger for early startup before config is loaded
//
// Components receive a child logger via With("component", name) so log
// records can be filtered per subsystem (mqtt, api, reconciler, ...).
package logging
