package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateQueue inserts a queue bound to an existing template. A missing
// template is reported as ErrNotFound, never silently defaulted.
func (s *Store) CreateQueue(ctx context.Context, name, templateID, createdBy string) (*Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("queue name is required")
	}

	ctx = ensureContext(ctx)
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates WHERE id = ?`, templateID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check template: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("template %s: %w", templateID, ErrNotFound)
	}

	id := uuid.NewString()
	now := timestampNow()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO queues (id, name, template_id, is_active, created_by, updated_by, created_at, updated_at)
         VALUES (?, ?, ?, 1, ?, ?, ?, ?)`,
		id, name, templateID, createdBy, createdBy, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert queue: %w", err)
	}
	return s.GetQueue(ctx, id)
}

// GetQueue fetches a queue by identifier.
func (s *Store) GetQueue(ctx context.Context, id string) (*Queue, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queues WHERE id = ?`, id)
	queue, err := scanQueue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	return queue, nil
}

// ListQueues returns all queues ordered by creation time.
func (s *Store) ListQueues(ctx context.Context) ([]*Queue, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM queues ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	var queues []*Queue
	for rows.Next() {
		queue, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

// UpdateQueue persists name/active changes and the updating actor.
func (s *Store) UpdateQueue(ctx context.Context, id, name string, active bool, updatedBy string) (*Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("queue name is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queues SET name = ?, is_active = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		name, boolToInt(active), updatedBy, timestampNow(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("queue %s: %w", id, ErrNotFound)
	}
	return s.GetQueue(ctx, id)
}

// DeleteQueue removes a queue and everything it owns. Items are removed
// before their statuses so the item→status RESTRICT reference never blocks
// the cascade.
func (s *Store) DeleteQueue(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM queues WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check queue: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("queue %s: %w", id, ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE queue_id = ?`, id); err != nil {
			return fmt.Errorf("delete queue items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM queues WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete queue: %w", err)
		}
		return nil
	})
}

const queueColumns = "id, name, template_id, is_active, created_by, updated_by, created_at, updated_at"

func scanQueue(scanner rowScanner) (*Queue, error) {
	var (
		queue      Queue
		isActive   int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&queue.ID,
		&queue.Name,
		&queue.TemplateID,
		&isActive,
		&queue.CreatedBy,
		&queue.UpdatedBy,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	queue.IsActive = isActive != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		queue.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		queue.UpdatedAt = updated
	}
	return &queue, nil
}
