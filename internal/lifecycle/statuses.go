package lifecycle

import (
	"context"
	"strings"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

// SessionStatuses returns a session's ordered pipeline stages.
func (m *Manager) SessionStatuses(ctx context.Context, sessionID string) ([]*store.SessionStatus, error) {
	return m.store.SessionStatuses(ctx, sessionID)
}

// AppendSessionStatus adds a stage to the end of one session's pipeline
// without touching the template it was cloned from.
func (m *Manager) AppendSessionStatus(ctx context.Context, sessionID, label, color string) (*store.SessionStatus, error) {
	label, err := requireName(label, "status")
	if err != nil {
		return nil, err
	}
	st, err := m.store.AppendSessionStatus(ctx, sessionID, label, strings.TrimSpace(color))
	if err != nil {
		return nil, err
	}
	m.logger.Info("session status added",
		logging.String(logging.FieldSessionID, st.SessionID),
		logging.String("status_id", st.ID))
	m.broadcast(event.New(event.TypeStatusCreated, "", st.SessionID, api.FromSessionStatus(st)))
	return st, nil
}

// UpdateSessionStatus edits a stage's label or color. Nil fields keep their
// stored values; position is immutable.
func (m *Manager) UpdateSessionStatus(ctx context.Context, id string, label, color *string) (*store.SessionStatus, error) {
	current, err := m.store.GetSessionStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	nextLabel := current.Label
	if label != nil {
		nextLabel, err = requireName(*label, "status")
		if err != nil {
			return nil, err
		}
	}
	nextColor := current.Color
	if color != nil {
		nextColor = strings.TrimSpace(*color)
	}
	st, err := m.store.UpdateSessionStatus(ctx, id, nextLabel, nextColor)
	if err != nil {
		return nil, err
	}
	m.broadcast(event.New(event.TypeStatusUpdated, "", st.SessionID, api.FromSessionStatus(st)))
	return st, nil
}

// DeleteSessionStatus removes an unused stage from a session's pipeline.
// Stages still holding tickets are refused.
func (m *Manager) DeleteSessionStatus(ctx context.Context, id string) error {
	st, err := m.store.GetSessionStatus(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.DeleteSessionStatus(ctx, id); err != nil {
		return err
	}
	m.logger.Info("session status deleted",
		logging.String(logging.FieldSessionID, st.SessionID),
		logging.String("status_id", id))
	m.broadcast(event.New(event.TypeStatusDeleted, "", st.SessionID, map[string]string{"id": id}))
	return nil
}
