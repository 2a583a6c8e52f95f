// Package runstore persists cleanup run audit records. The SQLite store is
// the durable implementation; Memory backs tests and ephemeral use.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
)

// SQLite stores runs in a local SQLite database. Safe for concurrent use.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

var _ cleanup.RunStore = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the run database at path and
// ensures the schema exists.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create run store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize run store schema: %w", err)
	}
	logger.Debug("run store opened", "path", path)
	return &SQLite{db: db, log: logger}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a run. Runs are keyed by ID, so re-saving a run
// that moved to a terminal status overwrites the earlier record.
func (s *SQLite) Save(ctx context.Context, run cleanup.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cleanup_runs
			(id, user_id, policy_id, status, dry_run, started_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.UserID, run.PolicyID, string(run.Status),
		boolToInt(run.DryRun), run.StartedAt.UTC(), string(payload))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// FindByID loads one run, returning cleanup.ErrRunNotFound when absent.
func (s *SQLite) FindByID(ctx context.Context, id string) (cleanup.Run, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM cleanup_runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return cleanup.Run{}, cleanup.ErrRunNotFound
	}
	if err != nil {
		return cleanup.Run{}, fmt.Errorf("load run %s: %w", id, err)
	}
	return decodeRun(id, payload)
}

// ListByUser returns a user's runs most recent first. A zero before means
// no upper bound; limit <= 0 means no limit.
func (s *SQLite) ListByUser(ctx context.Context, userID string, limit int, before time.Time) ([]cleanup.Run, error) {
	query := `SELECT id, payload FROM cleanup_runs WHERE user_id = ?`
	args := []any{userID}
	if !before.IsZero() {
		query += ` AND started_at < ?`
		args = append(args, before.UTC())
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var runs []cleanup.Run
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run, err := decodeRun(id, payload)
		if err != nil {
			// A corrupt row should not hide the rest of the history.
			s.log.Warn("skipping undecodable run record", "run", id, "error", err)
			continue
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs for %s: %w", userID, err)
	}
	return runs, nil
}

func decodeRun(id, payload string) (cleanup.Run, error) {
	var run cleanup.Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return cleanup.Run{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
