// Package metrics tracks request latency and error rate over a rolling
// window, bounded by both age and sample count, for the health endpoint.
package metrics
