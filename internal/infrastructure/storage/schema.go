package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the run-history tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			requested_count INTEGER NOT NULL,
			succeeded_count INTEGER NOT NULL,
			failed_ids TEXT[] NOT NULL DEFAULT '{}',
			skipped BOOLEAN NOT NULL,
			dry_run BOOLEAN NOT NULL,
			published BOOLEAN NOT NULL,
			digest_ref TEXT NOT NULL DEFAULT '',
			publish_error TEXT NOT NULL DEFAULT '',
			updated_count INTEGER NOT NULL,
			update_failed INTEGER NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS summarized_items (
			item_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
