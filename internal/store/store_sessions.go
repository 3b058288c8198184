package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResetResult reports the outcome of an atomic queue reset.
type ResetResult struct {
	Previous *Session // the session transitioned out of active, nil on first reset
	Session  *Session
	Statuses []*SessionStatus
}

// ResetQueue atomically closes the queue's active session (when one exists)
// and opens a new active session with statuses cloned from the queue's
// template, preserving label, color, and order, and recording lineage. Either
// the full new state is committed or nothing is.
func (s *Store) ResetQueue(ctx context.Context, queueID string) (*ResetResult, error) {
	ctx = ensureContext(ctx)
	result := &ResetResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// Re-runs on busy retry start from scratch.
		*result = ResetResult{}

		queueRow := tx.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queues WHERE id = ?`, queueID)
		queue, err := scanQueue(queueRow)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("queue %s: %w", queueID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get queue: %w", err)
		}

		now := time.Now().UTC()
		stamp := now.Format(time.RFC3339Nano)

		activeRow := tx.QueryRowContext(
			ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE queue_id = ? AND state = ?`,
			queueID, SessionActive,
		)
		previous, err := scanSession(activeRow)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// first session for this queue
		case err != nil:
			return fmt.Errorf("get active session: %w", err)
		default:
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE sessions SET state = ?, ended_at = ?, updated_at = ? WHERE id = ?`,
				SessionCompleted, stamp, stamp, previous.ID,
			); err != nil {
				return fmt.Errorf("close active session: %w", err)
			}
			previous.State = SessionCompleted
			previous.EndedAt = &now
			previous.UpdatedAt = now
			result.Previous = previous
		}

		var number int
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COALESCE(MAX(session_number), 0) + 1 FROM sessions WHERE queue_id = ?`,
			queueID,
		).Scan(&number); err != nil {
			return fmt.Errorf("next session number: %w", err)
		}

		sessionID := uuid.NewString()
		name := fmt.Sprintf("Session %d", number)
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO sessions (id, queue_id, template_id, name, state, session_number,
                started_at, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, queueID, queue.TemplateID, name, SessionActive, number, stamp, stamp, stamp,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		rows, err := tx.QueryContext(
			ctx,
			`SELECT id, label, color, position FROM template_statuses
             WHERE template_id = ? ORDER BY position`,
			queue.TemplateID,
		)
		if err != nil {
			return fmt.Errorf("query template statuses: %w", err)
		}
		defer rows.Close()

		type templateStatus struct {
			id       string
			label    string
			color    string
			position int
		}
		var sources []templateStatus
		for rows.Next() {
			var src templateStatus
			if err := rows.Scan(&src.id, &src.label, &src.color, &src.position); err != nil {
				return err
			}
			sources = append(sources, src)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		statuses := make([]*SessionStatus, 0, len(sources))
		for i, src := range sources {
			status := &SessionStatus{
				ID:               uuid.NewString(),
				SessionID:        sessionID,
				TemplateStatusID: src.id,
				Label:            src.label,
				Color:            src.color,
				Position:         i + 1,
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO session_statuses (id, session_id, template_status_id, label, color, position)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				status.ID, status.SessionID, status.TemplateStatusID, status.Label, status.Color, status.Position,
			); err != nil {
				return fmt.Errorf("clone status %q: %w", src.label, err)
			}
			statuses = append(statuses, status)
		}

		result.Session = &Session{
			ID:         sessionID,
			QueueID:    queueID,
			TemplateID: queue.TemplateID,
			Name:       name,
			State:      SessionActive,
			Number:     number,
			StartedAt:  &now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		result.Statuses = statuses
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSession fetches a session by identifier.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ActiveSession returns the queue's active session, or ErrNoActiveSession.
func (s *Store) ActiveSession(ctx context.Context, queueID string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE queue_id = ? AND state = ?`,
		queueID, SessionActive,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue %s: %w", queueID, ErrNoActiveSession)
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return session, nil
}

// ListSessions returns a queue's sessions newest first, skipping soft-deleted
// ones.
func (s *Store) ListSessions(ctx context.Context, queueID string) ([]*Session, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions
         WHERE queue_id = ? AND deleted_at IS NULL ORDER BY session_number DESC`,
		queueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// TransitionSession moves a session to the requested state, enforcing the
// state machine. Completing or archiving stamps ended_at.
func (s *Store) TransitionSession(ctx context.Context, id string, next SessionState) (*Session, error) {
	if _, ok := sessionStateSet[next]; !ok {
		return nil, fmt.Errorf("unknown session state %q", next)
	}

	ctx = ensureContext(ctx)
	var updated *Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
		session, err := scanSession(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if !session.State.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.State, next)
		}

		now := time.Now().UTC()
		stamp := now.Format(time.RFC3339Nano)
		var ended any
		if next.IsTerminal() && session.EndedAt == nil {
			ended = stamp
			session.EndedAt = &now
		} else {
			ended = nullableTime(session.EndedAt)
		}
		var started any
		if next == SessionActive && session.StartedAt == nil {
			started = stamp
			session.StartedAt = &now
		} else {
			started = nullableTime(session.StartedAt)
		}

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE sessions SET state = ?, started_at = ?, ended_at = ?, updated_at = ? WHERE id = ?`,
			next, started, ended, stamp, id,
		); err != nil {
			return fmt.Errorf("update session state: %w", err)
		}
		session.State = next
		session.UpdatedAt = now
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDeleteSession stamps deleted_at so listings skip the session while its
// history stays queryable.
func (s *Store) SoftDeleteSession(ctx context.Context, id string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		timestampNow(), timestampNow(), id,
	)
	if err != nil {
		return fmt.Errorf("soft delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

const sessionColumns = "id, queue_id, template_id, name, state, session_number, started_at, ended_at, deleted_at, created_at, updated_at"

func scanSession(scanner rowScanner) (*Session, error) {
	var (
		session    Session
		stateStr   string
		startedRaw sql.NullString
		endedRaw   sql.NullString
		deletedRaw sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&session.ID,
		&session.QueueID,
		&session.TemplateID,
		&session.Name,
		&stateStr,
		&session.Number,
		&startedRaw,
		&endedRaw,
		&deletedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	session.State = SessionState(stateStr)
	session.StartedAt = parseOptionalTime(startedRaw)
	session.EndedAt = parseOptionalTime(endedRaw)
	session.DeletedAt = parseOptionalTime(deletedRaw)
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	return &session, nil
}
