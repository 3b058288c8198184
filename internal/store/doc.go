// Package store persists templates, queues, sessions, statuses, and items in
// SQLite and exposes the primitives the lifecycle manager drives.
//
// The Store manages connections, schema initialization, busy retries, and the
// transactional queue reset that swaps the active session. Ownership is
// enforced in the schema: template statuses cascade with their template,
// sessions with their queue, session statuses and items with their session,
// while an item's status reference is RESTRICT so a referenced status can
// never be deleted out from under its items. A partial unique index keeps at
// most one session per queue in the active state.
//
// Treat this package as the single source of truth for storage semantics;
// schema changes bump schemaVersion in schema.go.
package store
