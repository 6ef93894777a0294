// Package storage persists run history into Postgres.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"tldrist/internal/domain"
	"tldrist/internal/ports"
)

// PostgresRepository records finished runs and their summarized items.
// All methods are no-ops on a nil db so the app can run without storage.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRecorder = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// AlreadySummarized returns a map with item IDs recorded by previous runs.
func (r *PostgresRepository) AlreadySummarized(ctx context.Context, ids []string) (map[string]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.builder.
		Select("item_id").
		From("summarized_items").
		Where(sq.Expr("item_id = ANY(?)", pq.StringArray(ids))).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query summarized: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SaveRun stores the run record and one row per summarized item.
func (r *PostgresRepository) SaveRun(ctx context.Context, report domain.RunReport) error {
	if r.db == nil {
		return nil
	}

	failedIDs := make([]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		failedIDs = append(failedIDs, f.Item.ID)
	}

	_, err := r.builder.
		Insert("runs").
		Columns(
			"run_id", "requested_count", "succeeded_count", "failed_ids",
			"skipped", "dry_run", "published", "digest_ref", "publish_error",
			"updated_count", "update_failed",
		).
		Values(
			report.RunID,
			report.RequestedCount,
			len(report.Succeeded),
			pq.StringArray(failedIDs),
			report.Skipped,
			report.DryRun,
			report.Published,
			report.DigestRef,
			report.PublishErr,
			report.UpdatedCount,
			report.UpdateFailed,
		).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, success := range report.Succeeded {
		_, err := r.builder.
			Insert("summarized_items").
			Columns("item_id", "run_id", "url", "title", "summary").
			Values(
				success.Item.ID,
				report.RunID,
				success.Item.URL,
				success.Extraction.Title,
				success.Summary.Text,
			).
			Suffix("ON CONFLICT (item_id) DO UPDATE SET run_id = EXCLUDED.run_id, summary = EXCLUDED.summary").
			RunWith(r.db).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert summarized item %s: %w", success.Item.ID, err)
		}
	}

	return nil
}
