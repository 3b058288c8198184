package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Type discriminates the closed set of domain events pushed to dashboards.
type Type string

const (
	TypeQueueCreated      Type = "queue_created"
	TypeQueueUpdated      Type = "queue_updated"
	TypeQueueDeleted      Type = "queue_deleted"
	TypeSessionCreated    Type = "session_created"
	TypeSessionUpdated    Type = "session_updated"
	TypeStatusCreated     Type = "status_created"
	TypeStatusUpdated     Type = "status_updated"
	TypeStatusDeleted     Type = "status_deleted"
	TypeItemCreated       Type = "queue_item_created"
	TypeItemUpdated       Type = "queue_item_updated"
	TypeItemStatusChanged Type = "queue_item_status_changed"
	TypeItemDeleted       Type = "queue_item_deleted"
)

var knownTypes = map[Type]struct{}{
	TypeQueueCreated:      {},
	TypeQueueUpdated:      {},
	TypeQueueDeleted:      {},
	TypeSessionCreated:    {},
	TypeSessionUpdated:    {},
	TypeStatusCreated:     {},
	TypeStatusUpdated:     {},
	TypeStatusDeleted:     {},
	TypeItemCreated:       {},
	TypeItemUpdated:       {},
	TypeItemStatusChanged: {},
	TypeItemDeleted:       {},
}

// Valid reports whether t belongs to the event taxonomy.
func (t Type) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// Event is one domain change broadcast to subscribers. QueueID and SessionID
// are routing identifiers; the hub matches subscriptions against them without
// inspecting Data.
type Event struct {
	Type      Type `json:"type"`
	QueueID   string `json:"queueId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any  `json:"data"`
}

// New constructs an event, panicking on a type outside the taxonomy. Event
// construction sites are compile-time constants, so a bad type is a
// programming error caught by the first test that exercises it.
func New(t Type, queueID, sessionID string, data any) Event {
	if !t.Valid() {
		panic(fmt.Sprintf("event: unknown type %q", t))
	}
	return Event{Type: t, QueueID: queueID, SessionID: sessionID, Data: data}
}

// Topics returns the routing keys this event should be delivered under.
func (e Event) Topics() []string {
	topics := make([]string, 0, 2)
	if e.QueueID != "" {
		topics = append(topics, QueueTopic(e.QueueID))
	}
	if e.SessionID != "" {
		topics = append(topics, SessionTopic(e.SessionID))
	}
	return topics
}

// QueueTopic builds the routing key for queue-scoped subscriptions.
func QueueTopic(queueID string) string { return "queue:" + queueID }

// SessionTopic builds the routing key for session-scoped subscriptions.
func SessionTopic(sessionID string) string { return "session:" + sessionID }

// EncodeSSE renders the event as a Server-Sent-Events frame: a named event
// with a JSON payload line, terminated by a blank line.
func (e Event) EncodeSSE() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(payload) + 32)
	buf.WriteString("event: ")
	buf.WriteString(string(e.Type))
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}
