// Package sse implements the Server-Sent-Events broadcast hub: a registry of
// live dashboard connections keyed by topic (queue or session id), fan-out
// delivery of domain events with per-subscriber FIFO ordering, keep-alives,
// and wall-clock idle eviction.
//
// The hub is a process-wide singleton constructed at daemon startup and
// passed explicitly to the HTTP layer. Subscriptions are in-memory and
// non-durable; clients that reconnect re-sync with a full state fetch.
package sse
