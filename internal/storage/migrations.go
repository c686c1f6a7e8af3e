package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/calluna/finsight/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					window_days INTEGER NOT NULL,
					consent_granted INTEGER NOT NULL DEFAULT 1,
					started_at DATETIME NOT NULL,
					completed_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_runs_user_window ON runs(user_id, window_days)`,

				`CREATE TABLE IF NOT EXISTS signals (
					user_id TEXT NOT NULL,
					window_days INTEGER NOT NULL,
					signal_type TEXT NOT NULL,
					discriminator TEXT NOT NULL,
					value REAL NOT NULL,
					detail TEXT NOT NULL,
					computed_at DATETIME NOT NULL,
					position INTEGER NOT NULL,
					PRIMARY KEY (user_id, window_days, signal_type, discriminator)
				)`,

				`CREATE TABLE IF NOT EXISTS persona_assignments (
					user_id TEXT NOT NULL,
					window_days INTEGER NOT NULL,
					persona_type TEXT NOT NULL,
					priority_rank INTEGER NOT NULL,
					criteria TEXT NOT NULL,
					assigned_at DATETIME NOT NULL,
					PRIMARY KEY (user_id, window_days, persona_type)
				)`,

				`CREATE TABLE IF NOT EXISTS recommendations (
					candidate_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					window_days INTEGER NOT NULL,
					kind TEXT NOT NULL,
					persona TEXT NOT NULL,
					rationale TEXT NOT NULL,
					params TEXT NOT NULL,
					outcome TEXT NOT NULL,
					rule TEXT NOT NULL DEFAULT '',
					explanation TEXT NOT NULL DEFAULT '',
					position INTEGER NOT NULL,
					PRIMARY KEY (user_id, window_days, candidate_id)
				)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 1 failed: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Recommendation feedback",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS feedback (
					user_id TEXT NOT NULL,
					candidate_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					helpful INTEGER NOT NULL,
					recorded_at DATETIME NOT NULL,
					PRIMARY KEY (user_id, candidate_id)
				)`,
				`CREATE INDEX idx_feedback_user ON feedback(user_id)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 2 failed: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_versions (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > ExpectedSchemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than supported version %d",
			common.ErrDatabaseCorrupted, current, ExpectedSchemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_versions (version) VALUES (?)`, m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
