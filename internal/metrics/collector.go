package metrics

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	duration   time.Duration
	statusCode int
	at         time.Time
}

// Snapshot is a point-in-time view of the rolling request window.
type Snapshot struct {
	Samples    int           `json:"samples"`
	AvgLatency time.Duration `json:"avgLatencyNs"`
	P50        time.Duration `json:"p50Ns"`
	P95        time.Duration `json:"p95Ns"`
	P99        time.Duration `json:"p99Ns"`
	ErrorRate  float64       `json:"errorRate"`
}

// Collector keeps a rolling window of request samples, bounded both by age
// and by count. Samples older than the window are pruned lazily on each
// write; when the count cap is hit the oldest samples fall off first.
type Collector struct {
	window     time.Duration
	maxSamples int
	now        func() time.Time

	mu      sync.Mutex
	samples []sample
}

// NewCollector constructs a collector with the given time window and sample
// cap. Non-positive values fall back to 5 minutes and 10000 samples.
func NewCollector(window time.Duration, maxSamples int) *Collector {
	if window <= 0 {
		window = 5 * time.Minute
	}
	if maxSamples <= 0 {
		maxSamples = 10000
	}
	return &Collector{
		window:     window,
		maxSamples: maxSamples,
		now:        time.Now,
	}
}

// Record adds one request observation and prunes expired samples.
func (c *Collector) Record(duration time.Duration, statusCode int) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(now)
	c.samples = append(c.samples, sample{duration: duration, statusCode: statusCode, at: now})
	if overflow := len(c.samples) - c.maxSamples; overflow > 0 {
		c.samples = append(c.samples[:0], c.samples[overflow:]...)
	}
}

// Snapshot computes percentiles, average latency, and error rate over the
// current window.
func (c *Collector) Snapshot() Snapshot {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(now)
	count := len(c.samples)
	if count == 0 {
		return Snapshot{}
	}

	durations := make([]time.Duration, count)
	var total time.Duration
	errors := 0
	for i, s := range c.samples {
		durations[i] = s.duration
		total += s.duration
		if s.statusCode >= 400 {
			errors++
		}
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	return Snapshot{
		Samples:    count,
		AvgLatency: total / time.Duration(count),
		P50:        percentile(durations, 50),
		P95:        percentile(durations, 95),
		P99:        percentile(durations, 99),
		ErrorRate:  float64(errors) / float64(count),
	}
}

// pruneLocked drops samples older than the window. Samples are appended in
// time order, so the expired prefix is contiguous.
func (c *Collector) pruneLocked(now time.Time) {
	cutoff := now.Add(-c.window)
	firstLive := len(c.samples)
	for i, s := range c.samples {
		if s.at.After(cutoff) {
			firstLive = i
			break
		}
	}
	if firstLive > 0 {
		c.samples = append(c.samples[:0], c.samples[firstLive:]...)
	}
}

// percentile returns the nearest-rank percentile of sorted durations.
func percentile(sorted []time.Duration, pct int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (pct*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
