package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ltx/internal/models"
	"github.com/desertthunder/ltx/internal/shared"
)

const runColumns = `
	id, service, playlist_id, total, cache_hits, searched, not_found,
	rejected, accepted, errors, updated, started_at, finished_at`

// RunRepository stores [models.RunRecord] rows.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts a run. An empty ID is replaced with a generated one.
func (r *RunRepository) Record(ctx context.Context, run models.RunRecord) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.Service == "" {
		return fmt.Errorf("%w: run service is required", shared.ErrInvalidInput)
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Service,
		run.PlaylistID,
		run.Total,
		run.CacheHits,
		run.Searched,
		run.NotFound,
		run.Rejected,
		run.Accepted,
		run.Errors,
		run.Updated,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	return scanRun(r.db.QueryRowContext(ctx, query, id))
}

// Latest returns the most recent run for service.
func (r *RunRepository) Latest(ctx context.Context, service string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE service = ? ORDER BY started_at DESC LIMIT 1`
	return scanRun(r.db.QueryRowContext(ctx, query, service))
}

// List returns runs newest first. An empty service matches every service; a non-positive limit returns all rows.
func (r *RunRepository) List(ctx context.Context, service string, limit int) ([]models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}

	if service != "" {
		query += " WHERE service = ?"
		args = append(args, service)
	}

	query += " ORDER BY started_at DESC, service ASC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// DeleteBefore removes runs that started before cutoff and returns how many were removed.
func (r *RunRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row from [sql.Row] or [sql.Rows] into a [models.RunRecord]
func scanRun(row scanner) (*models.RunRecord, error) {
	var run models.RunRecord

	err := row.Scan(
		&run.ID, &run.Service, &run.PlaylistID, &run.Total, &run.CacheHits,
		&run.Searched, &run.NotFound, &run.Rejected, &run.Accepted,
		&run.Errors, &run.Updated, &run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return &run, nil
}
