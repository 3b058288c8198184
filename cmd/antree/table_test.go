package main

import (
	"strings"
	"testing"
)

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Name"},
		[][]string{
			{"q1", "Counter 1"},
			{"q2"},
		},
	)
	for _, want := range []string{"ID", "Name", "q1", "Counter 1", "q2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"health", "template", "queue", "session", "config"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("root command missing %q subcommand", name)
		}
	}
}
