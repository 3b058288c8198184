// Package event defines the closed taxonomy of domain events the daemon
// broadcasts to dashboard subscribers, plus their SSE wire encoding.
package event
