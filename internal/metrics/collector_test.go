package metrics

import (
	"testing"
	"time"
)

func newTestCollector(window time.Duration, maxSamples int) (*Collector, *time.Time) {
	c := NewCollector(window, maxSamples)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestSnapshotEmptyWindow(t *testing.T) {
	c, _ := newTestCollector(time.Minute, 100)
	snap := c.Snapshot()
	if snap.Samples != 0 || snap.AvgLatency != 0 || snap.ErrorRate != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}

func TestSnapshotPercentilesAndAverage(t *testing.T) {
	c, _ := newTestCollector(time.Minute, 1000)
	for i := 1; i <= 100; i++ {
		c.Record(time.Duration(i)*time.Millisecond, 200)
	}

	snap := c.Snapshot()
	if snap.Samples != 100 {
		t.Fatalf("samples = %d, want 100", snap.Samples)
	}
	if snap.P50 != 50*time.Millisecond {
		t.Fatalf("p50 = %v, want 50ms", snap.P50)
	}
	if snap.P95 != 95*time.Millisecond {
		t.Fatalf("p95 = %v, want 95ms", snap.P95)
	}
	if snap.P99 != 99*time.Millisecond {
		t.Fatalf("p99 = %v, want 99ms", snap.P99)
	}
	if want := 50500 * time.Microsecond; snap.AvgLatency != want {
		t.Fatalf("avg = %v, want %v", snap.AvgLatency, want)
	}
	if snap.ErrorRate != 0 {
		t.Fatalf("error rate = %v, want 0", snap.ErrorRate)
	}
}

func TestErrorRateCountsStatusesAtOrAbove400(t *testing.T) {
	c, _ := newTestCollector(time.Minute, 100)
	c.Record(time.Millisecond, 200)
	c.Record(time.Millisecond, 301)
	c.Record(time.Millisecond, 404)
	c.Record(time.Millisecond, 500)

	snap := c.Snapshot()
	if snap.ErrorRate != 0.5 {
		t.Fatalf("error rate = %v, want 0.5", snap.ErrorRate)
	}
}

func TestWindowPrunesOldSamples(t *testing.T) {
	c, now := newTestCollector(time.Minute, 100)
	c.Record(10*time.Millisecond, 200)

	*now = now.Add(30 * time.Second)
	c.Record(20*time.Millisecond, 200)

	*now = now.Add(45 * time.Second)
	snap := c.Snapshot()
	if snap.Samples != 1 {
		t.Fatalf("samples = %d, want 1 after pruning", snap.Samples)
	}
	if snap.P50 != 20*time.Millisecond {
		t.Fatalf("surviving sample = %v, want 20ms", snap.P50)
	}
}

func TestCountCapDropsOldestFirst(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 3)
	for i := 1; i <= 5; i++ {
		c.Record(time.Duration(i)*time.Millisecond, 200)
	}

	snap := c.Snapshot()
	if snap.Samples != 3 {
		t.Fatalf("samples = %d, want 3", snap.Samples)
	}
	// Oldest two (1ms, 2ms) fell off.
	if snap.P50 != 4*time.Millisecond {
		t.Fatalf("p50 = %v, want 4ms", snap.P50)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []time.Duration{10, 20, 30, 40}
	cases := []struct {
		pct  int
		want time.Duration
	}{
		{50, 20},
		{95, 40},
		{99, 40},
		{1, 10},
	}
	for _, tc := range cases {
		if got := percentile(sorted, tc.pct); got != tc.want {
			t.Fatalf("percentile(%d) = %v, want %v", tc.pct, got, tc.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("percentile of empty slice = %v, want 0", got)
	}
}
