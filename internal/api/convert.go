package api

import (
	"encoding/json"
	"time"

	"github.com/silogos/Antree-sub001/internal/metrics"
	"github.com/silogos/Antree-sub001/internal/store"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// FromTemplate converts a template record to its API representation.
func FromTemplate(tpl *store.Template) Template {
	if tpl == nil {
		return Template{}
	}
	dto := Template{
		ID:        tpl.ID,
		Name:      tpl.Name,
		IsActive:  tpl.IsActive,
		IsSystem:  tpl.IsSystem,
		CreatedAt: formatTime(tpl.CreatedAt),
		UpdatedAt: formatTime(tpl.UpdatedAt),
	}
	for _, st := range tpl.Statuses {
		dto.Statuses = append(dto.Statuses, FromTemplateStatus(st))
	}
	return dto
}

// FromTemplateStatus converts a template stage to its API representation.
func FromTemplateStatus(st *store.TemplateStatus) TemplateStatus {
	if st == nil {
		return TemplateStatus{}
	}
	return TemplateStatus{
		ID:         st.ID,
		TemplateID: st.TemplateID,
		Label:      st.Label,
		Color:      st.Color,
		Position:   st.Position,
	}
}

// FromQueue converts a queue record to its API representation.
func FromQueue(q *store.Queue) Queue {
	if q == nil {
		return Queue{}
	}
	return Queue{
		ID:         q.ID,
		Name:       q.Name,
		TemplateID: q.TemplateID,
		IsActive:   q.IsActive,
		CreatedBy:  q.CreatedBy,
		UpdatedBy:  q.UpdatedBy,
		CreatedAt:  formatTime(q.CreatedAt),
		UpdatedAt:  formatTime(q.UpdatedAt),
	}
}

// FromSession converts a session record to its API representation.
func FromSession(s *store.Session) Session {
	if s == nil {
		return Session{}
	}
	return Session{
		ID:         s.ID,
		QueueID:    s.QueueID,
		TemplateID: s.TemplateID,
		Name:       s.Name,
		State:      string(s.State),
		Number:     s.Number,
		StartedAt:  formatTimePtr(s.StartedAt),
		EndedAt:    formatTimePtr(s.EndedAt),
		CreatedAt:  formatTime(s.CreatedAt),
		UpdatedAt:  formatTime(s.UpdatedAt),
	}
}

// FromSessionStatus converts a session stage to its API representation.
func FromSessionStatus(st *store.SessionStatus) SessionStatus {
	if st == nil {
		return SessionStatus{}
	}
	return SessionStatus{
		ID:               st.ID,
		SessionID:        st.SessionID,
		TemplateStatusID: st.TemplateStatusID,
		Label:            st.Label,
		Color:            st.Color,
		Position:         st.Position,
	}
}

// FromItem converts a ticket record to its API representation.
func FromItem(item *store.Item) Item {
	if item == nil {
		return Item{}
	}
	dto := Item{
		ID:        item.ID,
		QueueID:   item.QueueID,
		SessionID: item.SessionID,
		Number:    item.Number,
		Name:      item.Name,
		StatusID:  item.StatusID,
		CreatedAt: formatTime(item.CreatedAt),
		UpdatedAt: formatTime(item.UpdatedAt),
	}
	if len(item.Metadata) > 0 {
		if raw, err := json.Marshal(item.Metadata); err == nil {
			dto.Metadata = raw
		}
	}
	return dto
}

// FromResetResult converts a reset outcome to its API representation.
func FromResetResult(res *store.ResetResult) ResetResult {
	if res == nil {
		return ResetResult{}
	}
	dto := ResetResult{Session: FromSession(res.Session)}
	if res.Previous != nil {
		prev := FromSession(res.Previous)
		dto.Previous = &prev
	}
	for _, st := range res.Statuses {
		dto.Statuses = append(dto.Statuses, FromSessionStatus(st))
	}
	return dto
}

// FromCounts converts entity totals to their API representation.
func FromCounts(c store.Counts) EntityCounts {
	return EntityCounts{
		Templates:      c.Templates,
		Queues:         c.Queues,
		ActiveSessions: c.ActiveSessions,
		Items:          c.Items,
	}
}

// FromMetricsSnapshot converts a rolling-window snapshot to the API's
// millisecond representation.
func FromMetricsSnapshot(s metrics.Snapshot) RequestMetrics {
	toMS := func(d time.Duration) float64 {
		return float64(d) / float64(time.Millisecond)
	}
	return RequestMetrics{
		Samples:      s.Samples,
		AvgLatencyMS: toMS(s.AvgLatency),
		P50MS:        toMS(s.P50),
		P95MS:        toMS(s.P95),
		P99MS:        toMS(s.P99),
		ErrorRate:    s.ErrorRate,
	}
}

// FromDatabaseHealth converts database diagnostics to their API
// representation.
func FromDatabaseHealth(h store.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		DBPath:           h.DBPath,
		DatabaseExists:   h.DatabaseExists,
		DatabaseReadable: h.DatabaseReadable,
		TablesPresent:    h.TablesPresent,
		MissingTables:    h.MissingTables,
		IntegrityCheck:   h.IntegrityCheck,
		Error:            h.Error,
	}
}
