// Package api defines wire-format types, converters, and the HTTP client for
// the daemon API. It translates internal store models into transport-friendly
// DTOs that the CLI and other consumers can render without coupling to
// internal types.
//
// # Key Types
//
// Template/Queue/Session/SessionStatus/Item: transport representations of the
// core entities with camelCase JSON tags.
//
// ResetResult: the closed and freshly opened sessions plus the cloned stage
// pipeline returned by a queue reset.
//
// HealthResponse: aggregated daemon runtime information covering entity
// counts, database diagnostics, hub connections, and request metrics.
//
// ErrorResponse: the uniform error envelope with a machine-readable code.
//
// # Converters
//
// FromTemplate, FromQueue, FromSession, FromSessionStatus, FromItem and
// friends map store records onto DTOs. FromMetricsSnapshot converts the
// rolling-window latency snapshot into milliseconds.
//
// # Client
//
// Client wraps the daemon's REST endpoints for CLI consumers. Errors from the
// daemon are surfaced as *APIError carrying the status code and decoded
// envelope; transport failures wrap ErrAPIUnavailable.
//
// # Design Notes
//
// Timestamps use RFC3339 with milliseconds. Session lifecycle states are
// exposed as lowercase strings. Item metadata is passed through as
// json.RawMessage to avoid double-encoding.
package api
