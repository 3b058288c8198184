// Package daemon coordinates the long-running Antree process.
//
// It wires configuration, the store, the SSE hub, the metrics collector, and
// the lifecycle manager into a single lifecycle with flock-based locking to
// prevent multiple instances. The daemon owns the HTTP API server, the hub's
// keep-alive ticker, and the idle subscriber sweep.
//
// Keep orchestration logic here: domain mutations live in the lifecycle
// package while the daemon focuses on startup, shutdown, transport, and
// high level coordination.
package daemon
