package event_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/silogos/Antree-sub001/internal/event"
)

func TestTopicsFollowRoutingIDs(t *testing.T) {
	ev := event.New(event.TypeItemCreated, "q1", "s1", nil)
	topics := ev.Topics()
	if len(topics) != 2 || topics[0] != "queue:q1" || topics[1] != "session:s1" {
		t.Fatalf("unexpected topics: %v", topics)
	}

	queueOnly := event.New(event.TypeQueueDeleted, "q1", "", nil)
	if topics := queueOnly.Topics(); len(topics) != 1 || topics[0] != "queue:q1" {
		t.Fatalf("unexpected queue-only topics: %v", topics)
	}
}

func TestNewPanicsOnUnknownType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown event type")
		}
	}()
	event.New(event.Type("made_up"), "q1", "", nil)
}

func TestEncodeSSEFrameShape(t *testing.T) {
	ev := event.New(event.TypeSessionCreated, "q1", "s1", map[string]string{"name": "Session 1"})
	frame, err := ev.EncodeSSE()
	if err != nil {
		t.Fatalf("EncodeSSE failed: %v", err)
	}

	text := string(frame)
	if !strings.HasPrefix(text, "event: session_created\ndata: ") {
		t.Fatalf("unexpected frame prefix: %q", text)
	}
	if !strings.HasSuffix(text, "\n\n") {
		t.Fatalf("frame must end with a blank line: %q", text)
	}

	payload := strings.TrimSuffix(strings.TrimPrefix(text, "event: session_created\ndata: "), "\n\n")
	var decoded struct {
		Type      string            `json:"type"`
		QueueID   string            `json:"queueId"`
		SessionID string            `json:"sessionId"`
		Data      map[string]string `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("frame payload is not valid JSON: %v", err)
	}
	if decoded.Type != "session_created" || decoded.QueueID != "q1" || decoded.SessionID != "s1" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
	if decoded.Data["name"] != "Session 1" {
		t.Fatalf("data not round-tripped: %+v", decoded.Data)
	}
}

func TestTypeValidity(t *testing.T) {
	if !event.TypeItemStatusChanged.Valid() {
		t.Fatal("known type reported invalid")
	}
	if event.Type("nope").Valid() {
		t.Fatal("unknown type reported valid")
	}
}
