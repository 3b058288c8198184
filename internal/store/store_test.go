package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/silogos/Antree-sub001/internal/store"
	"github.com/silogos/Antree-sub001/internal/testsupport"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	health, err := st.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass on a fresh database")
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("expected no missing tables, got %v", health.MissingTables)
	}
}

func TestCreateTemplateAssignsPositions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	tpl := testsupport.NewTemplate(t, st, "Teller Flow", "Waiting", "Serving", "Done")
	if len(tpl.Statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(tpl.Statuses))
	}
	for i, status := range tpl.Statuses {
		if status.Position != i+1 {
			t.Fatalf("status %q position = %d, want %d", status.Label, status.Position, i+1)
		}
	}
}

func TestAppendTemplateStatusExtendsPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow", "A", "B")
	added, err := st.AppendTemplateStatus(ctx, tpl.ID, "C", "#00ff00")
	if err != nil {
		t.Fatalf("AppendTemplateStatus failed: %v", err)
	}
	if added.Position != 3 {
		t.Fatalf("appended status position = %d, want 3", added.Position)
	}
}

func TestActiveSessionBeforeFirstReset(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter 1", tpl.ID)

	if _, err := st.ActiveSession(ctx, q.ID); !errors.Is(err, store.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestResetQueueClonesTemplatePipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Teller Flow", "Waiting", "Serving", "Done")
	q := testsupport.NewQueue(t, st, "Counter 1", tpl.ID)

	res := testsupport.ResetQueue(t, st, q.ID)
	if res.Previous != nil {
		t.Fatalf("first reset should have no previous session, got %+v", res.Previous)
	}
	if res.Session.Name != "Session 1" || res.Session.Number != 1 {
		t.Fatalf("unexpected first session: %+v", res.Session)
	}
	if res.Session.State != store.SessionActive {
		t.Fatalf("new session state = %s, want active", res.Session.State)
	}
	if len(res.Statuses) != 3 {
		t.Fatalf("expected 3 cloned statuses, got %d", len(res.Statuses))
	}
	for i, status := range res.Statuses {
		if status.Position != i+1 {
			t.Fatalf("cloned status %q position = %d, want %d", status.Label, status.Position, i+1)
		}
		if status.Label != tpl.Statuses[i].Label {
			t.Fatalf("cloned status %d label = %q, want %q", i, status.Label, tpl.Statuses[i].Label)
		}
		if status.TemplateStatusID != tpl.Statuses[i].ID {
			t.Fatalf("cloned status %q lost its template lineage", status.Label)
		}
	}

	active, err := st.ActiveSession(ctx, q.ID)
	if err != nil {
		t.Fatalf("ActiveSession failed: %v", err)
	}
	if active.ID != res.Session.ID {
		t.Fatalf("active session = %s, want %s", active.ID, res.Session.ID)
	}
}

func TestResetQueueClosesPreviousSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)

	first := testsupport.ResetQueue(t, st, q.ID)
	second := testsupport.ResetQueue(t, st, q.ID)

	if second.Previous == nil || second.Previous.ID != first.Session.ID {
		t.Fatalf("expected previous session %s, got %+v", first.Session.ID, second.Previous)
	}
	if second.Previous.State != store.SessionCompleted {
		t.Fatalf("previous session state = %s, want completed", second.Previous.State)
	}
	if second.Previous.EndedAt == nil {
		t.Fatal("previous session should carry an end timestamp")
	}
	if second.Session.Name != "Session 2" {
		t.Fatalf("second session name = %q, want Session 2", second.Session.Name)
	}

	// Only one session per queue may ever be active at once.
	sessions, err := st.ListSessions(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	activeCount := 0
	for _, sess := range sessions {
		if sess.State == store.SessionActive {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("active sessions = %d, want 1", activeCount)
	}
	if sessions[0].ID != second.Session.ID {
		t.Fatalf("expected newest session first, got %s", sessions[0].ID)
	}
}

func TestSessionStateTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	res := testsupport.ResetQueue(t, st, q.ID)
	id := res.Session.ID

	sess, err := st.TransitionSession(ctx, id, store.SessionPaused)
	if err != nil {
		t.Fatalf("active -> paused failed: %v", err)
	}
	if sess.State != store.SessionPaused {
		t.Fatalf("state = %s, want paused", sess.State)
	}

	if _, err := st.TransitionSession(ctx, id, store.SessionActive); err != nil {
		t.Fatalf("paused -> active failed: %v", err)
	}
	sess, err = st.TransitionSession(ctx, id, store.SessionCompleted)
	if err != nil {
		t.Fatalf("active -> completed failed: %v", err)
	}
	if sess.EndedAt == nil {
		t.Fatal("completed session should carry an end timestamp")
	}

	if _, err := st.TransitionSession(ctx, id, store.SessionActive); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("completed -> active: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := st.TransitionSession(ctx, id, store.SessionArchived); err != nil {
		t.Fatalf("completed -> archived failed: %v", err)
	}
}

func TestCreateItemValidatesStatusOwnership(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	qA := testsupport.NewQueue(t, st, "Counter A", tpl.ID)
	qB := testsupport.NewQueue(t, st, "Counter B", tpl.ID)
	resA := testsupport.ResetQueue(t, st, qA.ID)
	resB := testsupport.ResetQueue(t, st, qB.ID)

	foreign := resB.Statuses[0].ID
	if _, err := st.CreateItem(ctx, resA.Session.ID, foreign, "A-001", "Alice", nil); !errors.Is(err, store.ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}

	item, err := st.CreateItem(ctx, resA.Session.ID, resA.Statuses[0].ID, "A-001", "Alice", map[string]string{"channel": "walk-in"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if item.QueueID != qA.ID {
		t.Fatalf("item queue = %s, want %s", item.QueueID, qA.ID)
	}
	if item.Metadata["channel"] != "walk-in" {
		t.Fatalf("metadata not persisted: %#v", item.Metadata)
	}
}

func TestMoveItemStaysWithinSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow", "Waiting", "Serving", "Done")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	res := testsupport.ResetQueue(t, st, q.ID)

	item, err := st.CreateItem(ctx, res.Session.ID, res.Statuses[0].ID, "001", "Alice", nil)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	moved, err := st.MoveItem(ctx, item.ID, res.Statuses[1].ID)
	if err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	if moved.StatusID != res.Statuses[1].ID {
		t.Fatalf("item status = %s, want %s", moved.StatusID, res.Statuses[1].ID)
	}

	other := testsupport.NewQueue(t, st, "Other", tpl.ID)
	otherRes := testsupport.ResetQueue(t, st, other.ID)
	if _, err := st.MoveItem(ctx, item.ID, otherRes.Statuses[0].ID); !errors.Is(err, store.ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch for cross-session move, got %v", err)
	}
}

func TestListItemsFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow", "Waiting", "Serving")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	res := testsupport.ResetQueue(t, st, q.ID)

	for i := 0; i < 3; i++ {
		if _, err := st.CreateItem(ctx, res.Session.ID, res.Statuses[0].ID, fmt.Sprintf("%03d", i+1), fmt.Sprintf("Guest %d", i+1), nil); err != nil {
			t.Fatalf("CreateItem %d failed: %v", i, err)
		}
	}
	all, err := st.ListItems(ctx, res.Session.ID, "")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if _, err := st.MoveItem(ctx, all[0].ID, res.Statuses[1].ID); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}

	serving, err := st.ListItems(ctx, res.Session.ID, res.Statuses[1].ID)
	if err != nil {
		t.Fatalf("filtered ListItems failed: %v", err)
	}
	if len(serving) != 1 || serving[0].ID != all[0].ID {
		t.Fatalf("unexpected filtered items: %#v", serving)
	}
}

func TestDeleteSessionStatusRefusesWhileInUse(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow", "Waiting", "Serving")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	res := testsupport.ResetQueue(t, st, q.ID)

	item, err := st.CreateItem(ctx, res.Session.ID, res.Statuses[0].ID, "001", "Alice", nil)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if err := st.DeleteSessionStatus(ctx, res.Statuses[0].ID); !errors.Is(err, store.ErrStatusInUse) {
		t.Fatalf("expected ErrStatusInUse, got %v", err)
	}

	if _, err := st.MoveItem(ctx, item.ID, res.Statuses[1].ID); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	if err := st.DeleteSessionStatus(ctx, res.Statuses[0].ID); err != nil {
		t.Fatalf("DeleteSessionStatus after vacating failed: %v", err)
	}
}

func TestDeleteQueueRemovesDescendants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	res := testsupport.ResetQueue(t, st, q.ID)
	item, err := st.CreateItem(ctx, res.Session.ID, res.Statuses[0].ID, "001", "Alice", nil)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if err := st.DeleteQueue(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQueue failed: %v", err)
	}
	if _, err := st.GetQueue(ctx, q.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected queue gone, got %v", err)
	}
	if _, err := st.GetSession(ctx, res.Session.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	if _, err := st.GetItem(ctx, item.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected item gone, got %v", err)
	}
}

func TestDeleteTemplateRefusesWhileReferenced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)

	if err := st.DeleteTemplate(ctx, tpl.ID); !errors.Is(err, store.ErrTemplateInUse) {
		t.Fatalf("expected ErrTemplateInUse, got %v", err)
	}
	if _, err := st.GetTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("refused delete must leave the template intact: %v", err)
	}

	if err := st.DeleteQueue(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQueue failed: %v", err)
	}
	if err := st.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate after queue removal failed: %v", err)
	}
	if _, err := st.GetTemplate(ctx, tpl.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected template gone, got %v", err)
	}
}

func TestSoftDeleteSessionHidesFromListings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	first := testsupport.ResetQueue(t, st, q.ID)
	testsupport.ResetQueue(t, st, q.ID)

	if err := st.SoftDeleteSession(ctx, first.Session.ID); err != nil {
		t.Fatalf("SoftDeleteSession failed: %v", err)
	}
	sessions, err := st.ListSessions(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	for _, sess := range sessions {
		if sess.ID == first.Session.ID {
			t.Fatal("soft-deleted session still listed")
		}
	}
	// The row survives for audit.
	if _, err := st.GetSession(ctx, first.Session.ID); err != nil {
		t.Fatalf("soft-deleted session should still resolve by id: %v", err)
	}
}

func TestEntityCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	tpl := testsupport.NewTemplate(t, st, "Flow")
	q := testsupport.NewQueue(t, st, "Counter", tpl.ID)
	res := testsupport.ResetQueue(t, st, q.ID)
	if _, err := st.CreateItem(ctx, res.Session.ID, res.Statuses[0].ID, "001", "Alice", nil); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	counts, err := st.EntityCounts(ctx)
	if err != nil {
		t.Fatalf("EntityCounts failed: %v", err)
	}
	if counts.Templates != 1 || counts.Queues != 1 || counts.ActiveSessions != 1 || counts.Items != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
