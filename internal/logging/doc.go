// Package logging centralizes slog construction and helpers for antree.
//
// It builds console or JSON handlers from configuration, exposes attribute
// helpers so call sites stay terse, and defines the standardized field keys
// (component, queue_id, session_id, item_id, subscriber_id) used across the
// daemon so logs stay greppable.
package logging
