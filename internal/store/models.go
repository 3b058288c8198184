package store

import (
	"strings"
	"time"
)

// SessionState represents the lifecycle of a queue session.
type SessionState string

const (
	SessionDraft     SessionState = "draft"
	SessionActive    SessionState = "active"
	SessionPaused    SessionState = "paused"
	SessionCompleted SessionState = "completed"
	SessionArchived  SessionState = "archived"
)

var allSessionStates = []SessionState{
	SessionDraft,
	SessionActive,
	SessionPaused,
	SessionCompleted,
	SessionArchived,
}

var sessionStateSet = func() map[SessionState]struct{} {
	set := make(map[SessionState]struct{}, len(allSessionStates))
	for _, state := range allSessionStates {
		set[state] = struct{}{}
	}
	return set
}()

// sessionTransitions enumerates the legal state machine edges.
var sessionTransitions = map[SessionState][]SessionState{
	SessionDraft:     {SessionActive},
	SessionActive:    {SessionPaused, SessionCompleted, SessionArchived},
	SessionPaused:    {SessionActive, SessionCompleted, SessionArchived},
	SessionCompleted: {SessionArchived},
}

// AllSessionStates returns the ordered list of known session states.
func AllSessionStates() []SessionState {
	cp := make([]SessionState, len(allSessionStates))
	copy(cp, allSessionStates)
	return cp
}

// ParseSessionState converts a string into a known SessionState.
func ParseSessionState(value string) (SessionState, bool) {
	normalized := SessionState(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := sessionStateSet[normalized]
	return normalized, ok
}

// IsActive reports the legacy two-state view of a session lifecycle.
func (s SessionState) IsActive() bool {
	return s == SessionActive
}

// IsTerminal reports whether a session has finished its run. Terminal
// sessions keep their end timestamp even when completed moves to archived.
func (s SessionState) IsTerminal() bool {
	return s == SessionCompleted || s == SessionArchived
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Template is a reusable pipeline definition queues are instantiated from.
type Template struct {
	ID        string
	Name      string
	IsActive  bool
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Statuses  []*TemplateStatus
}

// TemplateStatus is one ordered stage definition within a template.
type TemplateStatus struct {
	ID         string
	TemplateID string
	Label      string
	Color      string
	Position   int
}

// Queue is a named instance of a template holding at most one active session.
type Queue struct {
	ID         string
	Name       string
	TemplateID string
	IsActive   bool
	CreatedBy  string
	UpdatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session is a bounded run of a queue's pipeline.
type Session struct {
	ID         string
	QueueID    string
	TemplateID string
	Name       string
	State      SessionState
	Number     int
	StartedAt  *time.Time
	EndedAt    *time.Time
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionStatus is a pipeline stage instance owned by a session. The
// TemplateStatusID lineage pointer records which template status it was
// cloned from, when any.
type SessionStatus struct {
	ID               string
	SessionID        string
	TemplateStatusID string
	Label            string
	Color            string
	Position         int
}

// Item is a ticket progressing through a session's statuses. Number is the
// caller-supplied, human-facing queue number and is immutable after creation.
type Item struct {
	ID        string
	QueueID   string
	SessionID string
	Number    string
	Name      string
	StatusID  string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counts aggregates entity totals for health reporting.
type Counts struct {
	Templates      int
	Queues         int
	ActiveSessions int
	Items          int
}

// DatabaseHealth captures diagnostic information about the database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	Error            string
}
