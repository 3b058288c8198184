package testsupport

import (
	"context"
	"testing"

	"github.com/silogos/Antree-sub001/internal/config"
	"github.com/silogos/Antree-sub001/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewTemplate creates a template with the given status labels for tests.
func NewTemplate(t testing.TB, st *store.Store, name string, labels ...string) *store.Template {
	t.Helper()

	if len(labels) == 0 {
		labels = []string{"Waiting", "Serving", "Done"}
	}
	statuses := make([]*store.TemplateStatus, 0, len(labels))
	for _, label := range labels {
		statuses = append(statuses, &store.TemplateStatus{Label: label})
	}
	tpl, err := st.CreateTemplate(context.Background(), name, false, statuses)
	if err != nil {
		t.Fatalf("store.CreateTemplate: %v", err)
	}
	return tpl
}

// NewQueue creates a queue bound to the template for tests.
func NewQueue(t testing.TB, st *store.Store, name, templateID string) *store.Queue {
	t.Helper()

	q, err := st.CreateQueue(context.Background(), name, templateID, "tester")
	if err != nil {
		t.Fatalf("store.CreateQueue: %v", err)
	}
	return q
}

// ResetQueue opens a fresh session on the queue for tests.
func ResetQueue(t testing.TB, st *store.Store, queueID string) *store.ResetResult {
	t.Helper()

	res, err := st.ResetQueue(context.Background(), queueID)
	if err != nil {
		t.Fatalf("store.ResetQueue: %v", err)
	}
	return res
}
