package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/tradeflow/internal/common"
	"github.com/Veraticus/tradeflow/internal/model"
	"github.com/Veraticus/tradeflow/internal/service"
)

const jobColumns = `id, source_name, source_hash, status, error, created_at, completed_at`

// CreateJob inserts a job, assigning an ID, pending status and creation time when unset.
func (s *SQLiteStorage) CreateJob(ctx context.Context, job *model.Job) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateJob(job); err != nil {
		return err
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.SourceName, job.SourceHash, job.Status, job.Error,
		job.CreatedAt.UTC(), nullTime(job.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to create job: %w", translateError(err))
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *SQLiteStorage) GetJob(ctx context.Context, id string) (*model.Job, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// FindJobBySourceHash returns the most recent completed job for a source document.
func (s *SQLiteStorage) FindJobBySourceHash(ctx context.Context, hash string) (*model.Job, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE source_hash = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1`, hash, model.JobStatusCompleted)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job for source %s: %w", hash, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs newest first.
func (s *SQLiteStorage) ListJobs(ctx context.Context, filter service.JobFilter) ([]model.Job, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return nil, err
		}
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Before != nil {
		where = append(where, "created_at < ?")
		args = append(args, filter.Before.UTC())
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus moves a job to status. Completed and failed jobs get a completion time.
func (s *SQLiteStorage) UpdateJobStatus(ctx context.Context, id string, status model.JobStatus, errMsg string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	var completedAt *time.Time
	if status == model.JobStatusCompleted || status == model.JobStatusFailed {
		now := time.Now().UTC()
		completedAt = &now
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, completed_at = ?
		WHERE id = ?`, status, errMsg, nullTime(completedAt), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// DeleteJobsBefore removes jobs created before cutoff along with their results.
// Jobs still processing are kept.
func (s *SQLiteStorage) DeleteJobsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		const selectOld = `SELECT id FROM jobs WHERE created_at < ? AND status != ?`
		cutoffUTC := cutoff.UTC()
		for _, table := range resultTables {
			query := fmt.Sprintf(`DELETE FROM %s WHERE job_id IN (%s)`, table, selectOld)
			if _, err := tx.ExecContext(ctx, query, cutoffUTC, model.JobStatusProcessing); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ? AND status != ?`,
			cutoffUTC, model.JobStatusProcessing)
		if err != nil {
			return fmt.Errorf("failed to delete jobs: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job         model.Job
		completedAt sql.NullTime
	)
	if err := row.Scan(&job.ID, &job.SourceName, &job.SourceHash, &job.Status, &job.Error,
		&job.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	job.CreatedAt = job.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		job.CompletedAt = &t
	}
	return &job, nil
}
