package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateItem inserts a ticket into a session with a caller-specified initial
// status. The status must belong to the session; the queue number is the
// caller's and is never changed afterwards.
func (s *Store) CreateItem(ctx context.Context, sessionID, statusID, number, name string, metadata map[string]string) (*Item, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, errors.New("item number is required")
	}

	ctx = ensureContext(ctx)
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	status, err := s.GetSessionStatus(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if status.SessionID != session.ID {
		return nil, fmt.Errorf("status %s: %w", statusID, ErrStatusMismatch)
	}

	metadataValue, err := marshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	id := uuid.NewString()
	now := timestampNow()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO items (id, queue_id, session_id, number, name, status_id, metadata_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, session.QueueID, sessionID, number, name, statusID, metadataValue, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.GetItem(ctx, id)
}

// GetItem fetches an item by identifier.
func (s *Store) GetItem(ctx context.Context, id string) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns a session's items in creation order, optionally filtered
// to one status.
func (s *Store) ListItems(ctx context.Context, sessionID, statusID string) ([]*Item, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)
	if statusID == "" {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+itemColumns+` FROM items WHERE session_id = ? ORDER BY created_at`,
			sessionID,
		)
	} else {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+itemColumns+` FROM items WHERE session_id = ? AND status_id = ? ORDER BY created_at`,
			sessionID, statusID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem persists display-name and metadata edits. Status moves go
// through MoveItem so workflow progress stays a distinct operation.
func (s *Store) UpdateItem(ctx context.Context, id, name string, metadata map[string]string) (*Item, error) {
	metadataValue, err := marshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE items SET name = ?, metadata_json = ?, updated_at = ? WHERE id = ?`,
		name, metadataValue, timestampNow(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return s.GetItem(ctx, id)
}

// MoveItem reassigns an item to another status of the same session.
func (s *Store) MoveItem(ctx context.Context, id, statusID string) (*Item, error) {
	ctx = ensureContext(ctx)
	var moved *Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
		item, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		var statusSession string
		err = tx.QueryRowContext(ctx, `SELECT session_id FROM session_statuses WHERE id = ?`, statusID).Scan(&statusSession)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("status %s: %w", statusID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		if statusSession != item.SessionID {
			return fmt.Errorf("status %s: %w", statusID, ErrStatusMismatch)
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE items SET status_id = ?, updated_at = ? WHERE id = ?`,
			statusID, now.Format(time.RFC3339Nano), id,
		); err != nil {
			return fmt.Errorf("move item: %w", err)
		}
		item.StatusID = statusID
		item.UpdatedAt = now
		moved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// DeleteItem removes an item by identifier.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}

const itemColumns = "id, queue_id, session_id, number, name, status_id, metadata_json, created_at, updated_at"

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item       Item
		metadata   sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.QueueID,
		&item.SessionID,
		&item.Number,
		&item.Name,
		&item.StatusID,
		&metadata,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	item.Metadata = unmarshalMetadata(metadata)
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return &item, nil
}
