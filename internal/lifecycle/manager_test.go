package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/lifecycle"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
	"github.com/silogos/Antree-sub001/internal/testsupport"
)

// recorder captures broadcast events in order.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Broadcast(ev event.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event{}, r.events...)
}

func (r *recorder) last(t *testing.T) event.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no events recorded")
	}
	return r.events[len(r.events)-1]
}

func newManager(t *testing.T) (*lifecycle.Manager, *store.Store, *recorder) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	rec := &recorder{}
	return lifecycle.NewManager(st, rec, logging.NewNop()), st, rec
}

func seedQueue(t *testing.T, m *lifecycle.Manager) (*store.Template, *store.Queue) {
	t.Helper()
	ctx := context.Background()
	tpl, err := m.CreateTemplate(ctx, "Teller Flow", []lifecycle.StatusSpec{
		{Label: "Waiting"}, {Label: "Serving"}, {Label: "Done"},
	})
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	q, err := m.CreateQueue(ctx, "Counter 1", tpl.ID, "tester")
	if err != nil {
		t.Fatalf("CreateQueue failed: %v", err)
	}
	return tpl, q
}

func TestCreateTemplateRejectsEmptyPipeline(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	if _, err := m.CreateTemplate(ctx, "Empty", nil); !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := m.CreateTemplate(ctx, "   ", []lifecycle.StatusSpec{{Label: "A"}}); !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
	if _, err := m.CreateTemplate(ctx, "Flow", []lifecycle.StatusSpec{{Label: "  "}}); !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank label, got %v", err)
	}
}

func TestCreateQueueBroadcastsAfterPersist(t *testing.T) {
	m, st, rec := newManager(t)
	_, q := seedQueue(t, m)

	ev := rec.last(t)
	if ev.Type != event.TypeQueueCreated || ev.QueueID != q.ID {
		t.Fatalf("unexpected event: %+v", ev)
	}
	// The broadcast must refer to committed state.
	if _, err := st.GetQueue(context.Background(), ev.QueueID); err != nil {
		t.Fatalf("event references unknown queue: %v", err)
	}
}

func TestCreateQueueUnknownTemplateEmitsNothing(t *testing.T) {
	m, _, rec := newManager(t)
	ctx := context.Background()

	before := len(rec.all())
	if _, err := m.CreateQueue(ctx, "Counter", "no-such-template", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(rec.all()) != before {
		t.Fatal("failed mutation must not broadcast")
	}
}

func TestResetQueueEventOrdering(t *testing.T) {
	m, _, rec := newManager(t)
	_, q := seedQueue(t, m)
	ctx := context.Background()

	if _, err := m.ResetQueue(ctx, q.ID); err != nil {
		t.Fatalf("first ResetQueue failed: %v", err)
	}
	first := rec.last(t)
	if first.Type != event.TypeSessionCreated {
		t.Fatalf("first reset should emit session_created, got %s", first.Type)
	}

	if _, err := m.ResetQueue(ctx, q.ID); err != nil {
		t.Fatalf("second ResetQueue failed: %v", err)
	}
	events := rec.all()
	if len(events) < 2 {
		t.Fatalf("expected at least 2 events, got %d", len(events))
	}
	closing := events[len(events)-2]
	opening := events[len(events)-1]
	if closing.Type != event.TypeSessionUpdated {
		t.Fatalf("closed session event = %s, want session_updated", closing.Type)
	}
	if opening.Type != event.TypeSessionCreated {
		t.Fatalf("new session event = %s, want session_created", opening.Type)
	}
	if closing.SessionID == opening.SessionID {
		t.Fatal("closing and opening events must reference different sessions")
	}
}

func TestTransitionSessionValidation(t *testing.T) {
	m, _, _ := newManager(t)
	_, q := seedQueue(t, m)
	ctx := context.Background()

	res, err := m.ResetQueue(ctx, q.ID)
	if err != nil {
		t.Fatalf("ResetQueue failed: %v", err)
	}

	if _, err := m.TransitionSession(ctx, res.Session.ID, "warp"); !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown state, got %v", err)
	}
	sess, err := m.TransitionSession(ctx, res.Session.ID, "PAUSED")
	if err != nil {
		t.Fatalf("state names should be case-insensitive: %v", err)
	}
	if sess.State != store.SessionPaused {
		t.Fatalf("state = %s, want paused", sess.State)
	}
}

func TestCreateItemRequiresExplicitStatus(t *testing.T) {
	m, _, rec := newManager(t)
	_, q := seedQueue(t, m)
	ctx := context.Background()

	res, err := m.ResetQueue(ctx, q.ID)
	if err != nil {
		t.Fatalf("ResetQueue failed: %v", err)
	}

	if _, err := m.CreateItem(ctx, q.ID, "A-001", "Alice", "", nil); !errors.Is(err, lifecycle.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing status, got %v", err)
	}

	item, err := m.CreateItem(ctx, q.ID, "A-001", "Alice", res.Statuses[0].ID, nil)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if item.StatusID != res.Statuses[0].ID {
		t.Fatalf("item status = %s, want %s", item.StatusID, res.Statuses[0].ID)
	}
	ev := rec.last(t)
	if ev.Type != event.TypeItemCreated || ev.SessionID != res.Session.ID {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCreateItemWithoutActiveSession(t *testing.T) {
	m, _, _ := newManager(t)
	_, q := seedQueue(t, m)

	if _, err := m.CreateItem(context.Background(), q.ID, "A-001", "Alice", "some-status", nil); !errors.Is(err, store.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestMoveItemEmitsStatusChangeWithBothEnds(t *testing.T) {
	m, _, rec := newManager(t)
	_, q := seedQueue(t, m)
	ctx := context.Background()

	res, err := m.ResetQueue(ctx, q.ID)
	if err != nil {
		t.Fatalf("ResetQueue failed: %v", err)
	}
	item, err := m.CreateItem(ctx, q.ID, "A-001", "Alice", res.Statuses[0].ID, nil)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if _, err := m.MoveItem(ctx, item.ID, res.Statuses[1].ID); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}

	ev := rec.last(t)
	if ev.Type != event.TypeItemStatusChanged {
		t.Fatalf("event type = %s, want queue_item_status_changed", ev.Type)
	}
	data, ok := ev.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected event data shape: %T", ev.Data)
	}
	if data["fromStatusId"] != res.Statuses[0].ID || data["toStatusId"] != res.Statuses[1].ID {
		t.Fatalf("event missing transition endpoints: %#v", data)
	}
}

func TestUpdateItemKeepsUnspecifiedFields(t *testing.T) {
	m, _, _ := newManager(t)
	_, q := seedQueue(t, m)
	ctx := context.Background()

	res, err := m.ResetQueue(ctx, q.ID)
	if err != nil {
		t.Fatalf("ResetQueue failed: %v", err)
	}
	item, err := m.CreateItem(ctx, q.ID, "A-001", "Alice", res.Statuses[0].ID, map[string]string{"channel": "app"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	name := "Alice B."
	updated, err := m.UpdateItem(ctx, item.ID, &name, nil)
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Name != "Alice B." {
		t.Fatalf("name = %q, want Alice B.", updated.Name)
	}
	if updated.Metadata["channel"] != "app" {
		t.Fatalf("metadata lost on partial update: %#v", updated.Metadata)
	}
	if updated.Number != "A-001" {
		t.Fatalf("number must be immutable, got %q", updated.Number)
	}
}

func TestDeleteSessionStatusGuardedByItems(t *testing.T) {
	m, _, rec := newManager(t)
	_, q := seedQueue(t, m)
	ctx := context.Background()

	res, err := m.ResetQueue(ctx, q.ID)
	if err != nil {
		t.Fatalf("ResetQueue failed: %v", err)
	}
	if _, err := m.CreateItem(ctx, q.ID, "A-001", "Alice", res.Statuses[0].ID, nil); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	before := len(rec.all())
	if err := m.DeleteSessionStatus(ctx, res.Statuses[0].ID); !errors.Is(err, store.ErrStatusInUse) {
		t.Fatalf("expected ErrStatusInUse, got %v", err)
	}
	if len(rec.all()) != before {
		t.Fatal("refused deletion must not broadcast")
	}

	if err := m.DeleteSessionStatus(ctx, res.Statuses[2].ID); err != nil {
		t.Fatalf("deleting an empty stage failed: %v", err)
	}
	if ev := rec.last(t); ev.Type != event.TypeStatusDeleted {
		t.Fatalf("event type = %s, want status_deleted", ev.Type)
	}
}

func TestManagerWorksWithoutBroadcaster(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	m := lifecycle.NewManager(st, nil, nil)
	ctx := context.Background()

	tpl, err := m.CreateTemplate(ctx, "Flow", []lifecycle.StatusSpec{{Label: "A"}})
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	q, err := m.CreateQueue(ctx, "Counter", tpl.ID, "")
	if err != nil {
		t.Fatalf("CreateQueue without broadcaster failed: %v", err)
	}
	if _, err := m.ResetQueue(ctx, q.ID); err != nil {
		t.Fatalf("ResetQueue without broadcaster failed: %v", err)
	}
}
