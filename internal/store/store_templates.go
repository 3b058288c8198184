package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateTemplate inserts a template and its ordered status definitions.
// Status positions are assigned from slice order, starting at 1.
func (s *Store) CreateTemplate(ctx context.Context, name string, system bool, statuses []*TemplateStatus) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("template name is required")
	}

	id := uuid.NewString()
	now := timestampNow()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO templates (id, name, is_active, is_system, created_at, updated_at)
             VALUES (?, ?, 1, ?, ?, ?)`,
			id, name, boolToInt(system), now, now,
		); err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
		for i, status := range statuses {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO template_statuses (id, template_id, label, color, position)
                 VALUES (?, ?, ?, ?, ?)`,
				uuid.NewString(), id, status.Label, status.Color, i+1,
			); err != nil {
				return fmt.Errorf("insert template status %q: %w", status.Label, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, id)
}

// GetTemplate fetches a template with its ordered statuses.
func (s *Store) GetTemplate(ctx context.Context, id string) (*Template, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, is_active, is_system, created_at, updated_at FROM templates WHERE id = ?`,
		id,
	)
	template, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	statuses, err := s.TemplateStatuses(ctx, id)
	if err != nil {
		return nil, err
	}
	template.Statuses = statuses
	return template, nil
}

// ListTemplates returns all templates ordered by name, without statuses.
func (s *Store) ListTemplates(ctx context.Context) ([]*Template, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, is_active, is_system, created_at, updated_at FROM templates ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

// TemplateStatuses returns a template's status definitions in position order.
func (s *Store) TemplateStatuses(ctx context.Context, templateID string) ([]*TemplateStatus, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, template_id, label, color, position FROM template_statuses
         WHERE template_id = ? ORDER BY position`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("query template statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*TemplateStatus
	for rows.Next() {
		status := &TemplateStatus{}
		if err := rows.Scan(&status.ID, &status.TemplateID, &status.Label, &status.Color, &status.Position); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

// AppendTemplateStatus adds a status definition at the end of the template's
// pipeline. Templates referenced by queues stay otherwise immutable; the
// status list is append-only.
func (s *Store) AppendTemplateStatus(ctx context.Context, templateID, label, color string) (*TemplateStatus, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, errors.New("status label is required")
	}

	id := uuid.NewString()
	var position int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates WHERE id = ?`, templateID).Scan(&exists); err != nil {
			return fmt.Errorf("check template: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("template %s: %w", templateID, ErrNotFound)
		}
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM template_statuses WHERE template_id = ?`,
			templateID,
		).Scan(&position); err != nil {
			return fmt.Errorf("next status position: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO template_statuses (id, template_id, label, color, position)
             VALUES (?, ?, ?, ?, ?)`,
			id, templateID, label, color, position,
		); err != nil {
			return fmt.Errorf("insert template status: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE templates SET updated_at = ? WHERE id = ?`,
			timestampNow(), templateID,
		); err != nil {
			return fmt.Errorf("touch template: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &TemplateStatus{ID: id, TemplateID: templateID, Label: label, Color: color, Position: position}, nil
}

// DeleteTemplate removes a template and cascades to its status definitions.
// A template still referenced by queues or sessions is reported as
// ErrTemplateInUse and left unchanged.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check template: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		var queues int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM queues WHERE template_id = ?`, id).Scan(&queues); err != nil {
			return fmt.Errorf("count referencing queues: %w", err)
		}
		if queues > 0 {
			return fmt.Errorf("template %s has %d queues: %w", id, queues, ErrTemplateInUse)
		}
		var sessions int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE template_id = ?`, id).Scan(&sessions); err != nil {
			return fmt.Errorf("count referencing sessions: %w", err)
		}
		if sessions > 0 {
			return fmt.Errorf("template %s has %d sessions: %w", id, sessions, ErrTemplateInUse)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		return nil
	})
}

func scanTemplate(scanner rowScanner) (*Template, error) {
	var (
		template   Template
		isActive   int
		isSystem   int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&template.ID, &template.Name, &isActive, &isSystem, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	template.IsActive = isActive != 0
	template.IsSystem = isSystem != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		template.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		template.UpdatedAt = updated
	}
	return &template, nil
}
