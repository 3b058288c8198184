package lifecycle

import (
	"context"

	"github.com/silogos/Antree-sub001/internal/api"
	"github.com/silogos/Antree-sub001/internal/event"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/store"
)

// ResetQueue closes the queue's active session and opens a fresh one with
// statuses cloned from the template. The store commits both steps in one
// transaction; events follow only after the commit, closed session first so
// subscribers observe the handover in order.
func (m *Manager) ResetQueue(ctx context.Context, queueID string) (*store.ResetResult, error) {
	res, err := m.store.ResetQueue(ctx, queueID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("queue reset",
		logging.String(logging.FieldQueueID, queueID),
		logging.String(logging.FieldSessionID, res.Session.ID),
		logging.Int("session_number", res.Session.Number))
	if res.Previous != nil {
		m.broadcast(event.New(event.TypeSessionUpdated, queueID, res.Previous.ID, api.FromSession(res.Previous)))
	}
	m.broadcast(event.New(event.TypeSessionCreated, queueID, res.Session.ID, api.FromResetResult(res)))
	return res, nil
}

// GetSession fetches a single session.
func (m *Manager) GetSession(ctx context.Context, id string) (*store.Session, error) {
	return m.store.GetSession(ctx, id)
}

// ActiveSession fetches the queue's currently active session.
func (m *Manager) ActiveSession(ctx context.Context, queueID string) (*store.Session, error) {
	return m.store.ActiveSession(ctx, queueID)
}

// ListSessions returns a queue's sessions, newest first.
func (m *Manager) ListSessions(ctx context.Context, queueID string) ([]*store.Session, error) {
	return m.store.ListSessions(ctx, queueID)
}

// TransitionSession moves a session along its lifecycle and announces the
// new state. Unknown state names fail validation before touching storage.
func (m *Manager) TransitionSession(ctx context.Context, id, state string) (*store.Session, error) {
	next, ok := store.ParseSessionState(state)
	if !ok {
		return nil, validationErr("unknown session state %q", state)
	}
	sess, err := m.store.TransitionSession(ctx, id, next)
	if err != nil {
		return nil, err
	}
	m.logger.Info("session transitioned",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String("state", string(sess.State)))
	m.broadcast(event.New(event.TypeSessionUpdated, sess.QueueID, sess.ID, api.FromSession(sess)))
	return sess, nil
}

// DeleteSession soft-deletes a session, hiding it from listings while
// keeping its rows for audit.
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.SoftDeleteSession(ctx, id); err != nil {
		return err
	}
	m.logger.Info("session deleted", logging.String(logging.FieldSessionID, id))
	m.broadcast(event.New(event.TypeSessionUpdated, sess.QueueID, id, map[string]string{"id": id, "deleted": "true"}))
	return nil
}
