package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/chartlab/internal/apperror"
	"github.com/sakif/chartlab/internal/model"
	"github.com/sakif/chartlab/internal/repository"
)

// Compile-time check that *DB implements repository.JobRepository.
var _ repository.JobRepository = (*DB)(nil)

// Create inserts a job outcome. The caller's job gets its ID and CreatedAt
// filled in unless an ID (the workspace ID) was already assigned.
func (db *DB) Create(ctx context.Context, job *model.RenderJob) error {
	if job.ID == "" {
		job.ID = xid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO render_jobs (id, status, artifact_count, exit_code, stderr, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Status,
		job.ArtifactCount,
		job.ExitCode,
		job.Stderr,
		job.DurationMs,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating render job: %w", err)
	}

	return nil
}

// GetByID retrieves a single job by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.RenderJob, error) {
	var job model.RenderJob

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, status, artifact_count, exit_code, stderr, duration_ms, created_at
		 FROM render_jobs
		 WHERE id = ?`,
		id,
	).Scan(
		&job.ID,
		&job.Status,
		&job.ArtifactCount,
		&job.ExitCode,
		&job.Stderr,
		&job.DurationMs,
		&job.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("job", id)
		}
		return nil, fmt.Errorf("sqlite: getting render job %s: %w", id, err)
	}

	return &job, nil
}

// List retrieves jobs newest-first with limit/offset pagination.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.RenderJob, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, status, artifact_count, exit_code, stderr, duration_ms, created_at
		 FROM render_jobs
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing render jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.RenderJob, 0, limit)
	for rows.Next() {
		var j model.RenderJob
		if err := rows.Scan(
			&j.ID, &j.Status, &j.ArtifactCount, &j.ExitCode,
			&j.Stderr, &j.DurationMs, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning render job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating render jobs: %w", err)
	}

	return jobs, nil
}

// PruneBefore deletes jobs created before cutoff. This is the retention
// mechanism that keeps the history from growing for the process lifetime.
func (db *DB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM render_jobs WHERE created_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning render jobs: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return removed, nil
}
