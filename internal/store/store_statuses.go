package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionStatuses returns a session's statuses in pipeline order.
func (s *Store) SessionStatuses(ctx context.Context, sessionID string) ([]*SessionStatus, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionStatusColumns+` FROM session_statuses
         WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*SessionStatus
	for rows.Next() {
		status, err := scanSessionStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

// GetSessionStatus fetches a single session status.
func (s *Store) GetSessionStatus(ctx context.Context, id string) (*SessionStatus, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionStatusColumns+` FROM session_statuses WHERE id = ?`, id)
	status, err := scanSessionStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("status %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session status: %w", err)
	}
	return status, nil
}

// AppendSessionStatus adds a stage at the end of a session's pipeline.
func (s *Store) AppendSessionStatus(ctx context.Context, sessionID, label, color string) (*SessionStatus, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, errors.New("status label is required")
	}

	id := uuid.NewString()
	var position int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM session_statuses WHERE session_id = ?`,
			sessionID,
		).Scan(&position); err != nil {
			return fmt.Errorf("next status position: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO session_statuses (id, session_id, label, color, position)
             VALUES (?, ?, ?, ?, ?)`,
			id, sessionID, label, color, position,
		); err != nil {
			return fmt.Errorf("insert session status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SessionStatus{ID: id, SessionID: sessionID, Label: label, Color: color, Position: position}, nil
}

// UpdateSessionStatus persists label/color changes. Position is immutable.
func (s *Store) UpdateSessionStatus(ctx context.Context, id, label, color string) (*SessionStatus, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, errors.New("status label is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE session_statuses SET label = ?, color = ? WHERE id = ?`,
		label, color, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("status %s: %w", id, ErrNotFound)
	}
	return s.GetSessionStatus(ctx, id)
}

// DeleteSessionStatus removes a stage. A status still referenced by items is
// reported as ErrStatusInUse and left unchanged; the foreign key RESTRICT
// backs this check.
func (s *Store) DeleteSessionStatus(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM session_statuses WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check status: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("status %s: %w", id, ErrNotFound)
		}
		var referencing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM items WHERE status_id = ?`, id).Scan(&referencing); err != nil {
			return fmt.Errorf("count referencing items: %w", err)
		}
		if referencing > 0 {
			return fmt.Errorf("status %s has %d items: %w", id, referencing, ErrStatusInUse)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_statuses WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete session status: %w", err)
		}
		return nil
	})
}

const sessionStatusColumns = "id, session_id, template_status_id, label, color, position"

func scanSessionStatus(scanner rowScanner) (*SessionStatus, error) {
	var (
		status   SessionStatus
		template sql.NullString
	)
	if err := scanner.Scan(
		&status.ID,
		&status.SessionID,
		&template,
		&status.Label,
		&status.Color,
		&status.Position,
	); err != nil {
		return nil, err
	}
	status.TemplateStatusID = template.String
	return &status, nil
}
