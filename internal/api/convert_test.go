package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/metrics"
	"github.com/silogos/Antree-sub001/internal/store"
)

func TestFromSessionFormatsTimestamps(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	sess := &store.Session{
		ID:        "s1",
		QueueID:   "q1",
		Name:      "Session 3",
		State:     store.SessionActive,
		Number:    3,
		StartedAt: &started,
		CreatedAt: started,
	}

	dto := api.FromSession(sess)
	if dto.State != "active" {
		t.Fatalf("state = %q", dto.State)
	}
	if dto.StartedAt != "2026-03-01T09:30:00.000Z" {
		t.Fatalf("startedAt = %q", dto.StartedAt)
	}
	if dto.EndedAt != "" {
		t.Fatalf("endedAt should be empty for a running session, got %q", dto.EndedAt)
	}
}

func TestFromSessionNil(t *testing.T) {
	if dto := api.FromSession(nil); dto.ID != "" {
		t.Fatalf("nil session should convert to zero value, got %+v", dto)
	}
}

func TestFromItemMarshalsMetadata(t *testing.T) {
	item := &store.Item{
		ID:       "i1",
		Number:   "A-001",
		Name:     "Alice",
		Metadata: map[string]string{"channel": "walk-in"},
	}

	dto := api.FromItem(item)
	var meta map[string]string
	if err := json.Unmarshal(dto.Metadata, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["channel"] != "walk-in" {
		t.Fatalf("metadata = %#v", meta)
	}

	bare := api.FromItem(&store.Item{ID: "i2"})
	if bare.Metadata != nil {
		t.Fatalf("empty metadata should be omitted, got %q", bare.Metadata)
	}
}

func TestFromResetResultCarriesPrevious(t *testing.T) {
	res := &store.ResetResult{
		Previous: &store.Session{ID: "old", State: store.SessionCompleted},
		Session:  &store.Session{ID: "new", State: store.SessionActive},
		Statuses: []*store.SessionStatus{{ID: "st1", Position: 1}},
	}

	dto := api.FromResetResult(res)
	if dto.Previous == nil || dto.Previous.ID != "old" {
		t.Fatalf("previous not converted: %+v", dto.Previous)
	}
	if dto.Session.ID != "new" || len(dto.Statuses) != 1 {
		t.Fatalf("unexpected result: %+v", dto)
	}

	first := api.FromResetResult(&store.ResetResult{Session: &store.Session{ID: "only"}})
	if first.Previous != nil {
		t.Fatal("missing previous session must stay nil")
	}
}

func TestFromMetricsSnapshotConvertsToMilliseconds(t *testing.T) {
	snap := metrics.Snapshot{
		Samples:    10,
		AvgLatency: 1500 * time.Microsecond,
		P95:        30 * time.Millisecond,
		ErrorRate:  0.25,
	}

	dto := api.FromMetricsSnapshot(snap)
	if dto.AvgLatencyMS != 1.5 {
		t.Fatalf("avg = %v, want 1.5", dto.AvgLatencyMS)
	}
	if dto.P95MS != 30 {
		t.Fatalf("p95 = %v, want 30", dto.P95MS)
	}
	if dto.Samples != 10 || dto.ErrorRate != 0.25 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}
