package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// EntityCounts aggregates entity totals for health reporting.
func (s *Store) EntityCounts(ctx context.Context) (Counts, error) {
	ctx = ensureContext(ctx)
	counts := Counts{}
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM templates`, &counts.Templates},
		{`SELECT COUNT(1) FROM queues`, &counts.Queues},
		{`SELECT COUNT(1) FROM sessions WHERE state = 'active'`, &counts.ActiveSessions},
		{`SELECT COUNT(1) FROM items`, &counts.Items},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Counts{}, fmt.Errorf("entity counts: %w", err)
		}
	}
	return counts, nil
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	expected := []string{"templates", "template_statuses", "queues", "sessions", "session_statuses", "items"}
	missing := make(map[string]struct{}, len(expected))
	for _, table := range expected {
		missing[table] = struct{}{}
	}

	rows, err := s.db.QueryContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("scan table info: %w", err)
		}
		if _, ok := missing[name]; ok {
			health.TablesPresent = append(health.TablesPresent, name)
			delete(missing, name)
		}
	}
	if err := rows.Err(); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("iterate table info: %w", err)
	}
	for table := range missing {
		health.MissingTables = append(health.MissingTables, table)
	}

	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("integrity check: %w", err)
		}
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
