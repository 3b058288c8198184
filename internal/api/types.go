package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Template describes a status pipeline definition in a transport-friendly
// format.
type Template struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	IsActive  bool             `json:"isActive"`
	IsSystem  bool             `json:"isSystem"`
	Statuses  []TemplateStatus `json:"statuses,omitempty"`
	CreatedAt string           `json:"createdAt,omitempty"`
	UpdatedAt string           `json:"updatedAt,omitempty"`
}

// TemplateStatus is one ordered stage definition within a template.
type TemplateStatus struct {
	ID         string `json:"id"`
	TemplateID string `json:"templateId"`
	Label      string `json:"label"`
	Color      string `json:"color,omitempty"`
	Position   int    `json:"position"`
}

// Queue describes a queue in a transport-friendly format.
type Queue struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TemplateID string `json:"templateId"`
	IsActive   bool   `json:"isActive"`
	CreatedBy  string `json:"createdBy,omitempty"`
	UpdatedBy  string `json:"updatedBy,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// Session describes one bounded run of a queue's pipeline.
type Session struct {
	ID         string `json:"id"`
	QueueID    string `json:"queueId"`
	TemplateID string `json:"templateId"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Number     int    `json:"number"`
	StartedAt  string `json:"startedAt,omitempty"`
	EndedAt    string `json:"endedAt,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// SessionStatus is a pipeline stage instance owned by a session.
type SessionStatus struct {
	ID               string `json:"id"`
	SessionID        string `json:"sessionId"`
	TemplateStatusID string `json:"templateStatusId,omitempty"`
	Label            string `json:"label"`
	Color            string `json:"color,omitempty"`
	Position         int    `json:"position"`
}

// Item describes a ticket progressing through a session.
type Item struct {
	ID        string          `json:"id"`
	QueueID   string          `json:"queueId"`
	SessionID string          `json:"sessionId"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	StatusID  string          `json:"statusId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// ResetResult reports the outcome of a queue reset.
type ResetResult struct {
	Previous *Session        `json:"previous,omitempty"`
	Session  Session         `json:"session"`
	Statuses []SessionStatus `json:"statuses"`
}

// EntityCounts aggregates entity totals for health reporting.
type EntityCounts struct {
	Templates      int `json:"templates"`
	Queues         int `json:"queues"`
	ActiveSessions int `json:"activeSessions"`
	Items          int `json:"items"`
}

// DatabaseHealth mirrors database diagnostics for API consumers.
type DatabaseHealth struct {
	DBPath           string   `json:"dbPath"`
	DatabaseExists   bool     `json:"databaseExists"`
	DatabaseReadable bool     `json:"databaseReadable"`
	TablesPresent    []string `json:"tablesPresent,omitempty"`
	MissingTables    []string `json:"missingTables,omitempty"`
	IntegrityCheck   bool     `json:"integrityCheck"`
	Error            string   `json:"error,omitempty"`
}

// RequestMetrics summarizes API traffic over the rolling sample window.
type RequestMetrics struct {
	Samples      int     `json:"samples"`
	AvgLatencyMS float64 `json:"avgLatencyMs"`
	P50MS        float64 `json:"p50Ms"`
	P95MS        float64 `json:"p95Ms"`
	P99MS        float64 `json:"p99Ms"`
	ErrorRate    float64 `json:"errorRate"`
}

// HealthResponse aggregates daemon runtime information for API consumers.
type HealthResponse struct {
	Status      string         `json:"status"`
	PID         int            `json:"pid"`
	Connections int            `json:"connections"`
	Topics      map[string]int `json:"topics,omitempty"`
	Counts      EntityCounts   `json:"counts"`
	Database    DatabaseHealth `json:"database"`
	Requests    RequestMetrics `json:"requests"`
}

// ListResponse wraps homogeneous collections for list endpoints.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// ErrorResponse is the uniform error envelope for failed requests.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Machine-readable error codes carried by ErrorResponse.
const (
	CodeNotFound          = "not_found"
	CodeValidation        = "validation_failed"
	CodeStatusInUse       = "status_in_use"
	CodeTemplateInUse     = "template_in_use"
	CodeStatusMismatch    = "status_mismatch"
	CodeInvalidTransition = "invalid_transition"
	CodeNoActiveSession   = "no_active_session"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal_error"
)

// CreateTemplateRequest creates a template with its ordered statuses.
type CreateTemplateRequest struct {
	Name     string                        `json:"name"`
	IsActive *bool                         `json:"isActive,omitempty"`
	Statuses []CreateTemplateStatusRequest `json:"statuses"`
}

// CreateTemplateStatusRequest defines one stage of a new template.
type CreateTemplateStatusRequest struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// CreateQueueRequest creates a queue bound to a template.
type CreateQueueRequest struct {
	Name       string `json:"name"`
	TemplateID string `json:"templateId"`
	CreatedBy  string `json:"createdBy,omitempty"`
}

// UpdateQueueRequest renames or toggles a queue.
type UpdateQueueRequest struct {
	Name      *string `json:"name,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
	UpdatedBy string  `json:"updatedBy,omitempty"`
}

// TransitionSessionRequest moves a session to a new lifecycle state.
type TransitionSessionRequest struct {
	State string `json:"state"`
}

// CreateItemRequest enqueues a ticket into a queue's active session.
type CreateItemRequest struct {
	Number   string            `json:"number"`
	Name     string            `json:"name"`
	StatusID string            `json:"statusId"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UpdateItemRequest edits a ticket's mutable fields.
type UpdateItemRequest struct {
	Name     *string           `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MoveItemRequest advances a ticket to another status in its session.
type MoveItemRequest struct {
	StatusID string `json:"statusId"`
}

// CreateSessionStatusRequest appends a stage to a session's pipeline.
type CreateSessionStatusRequest struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// UpdateSessionStatusRequest edits a session stage's label or color.
type UpdateSessionStatusRequest struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
}
