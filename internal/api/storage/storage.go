package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sirfoga/gamer/internal/api/domain"
	"github.com/sirfoga/gamer/internal/api/model"
	"github.com/sirfoga/gamer/shared/postgresql"
)

const runColumns = `
	run_id, config_folder, status, worker_id,
	succeeded, failed, skipped, error_message,
	created_at, updated_at, started_at, completed_at
`

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) CreateRun(ctx context.Context, run *model.Run) error {
	query := `
		INSERT INTO runs (
			run_id, config_folder, status, created_at, updated_at
		) VALUES (
			:run_id, :config_folder, :status, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (s *Storage) GetRunByID(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = $1`

	err := s.db.GetContext(ctx, &run, query, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

func (s *Storage) ListRunJobs(ctx context.Context, runID string) ([]model.RunJob, error) {
	query := `
		SELECT source_path, status, error_message, started_at, finished_at, duration_ms
		FROM run_jobs
		WHERE run_id = $1
		ORDER BY source_path
	`

	jobs := []model.RunJob{}
	if err := s.db.SelectContext(ctx, &jobs, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list run jobs: %w", err)
	}

	return jobs, nil
}

type RunFilter struct {
	Status   string
	PageSize int
	Cursor   *RunCursor
}

type RunCursor struct {
	CreatedAt time.Time
	RunID     string
}

func (s *Storage) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, run_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.RunID)
		argIdx += 2
	}

	// Newest first; run_id breaks ties so pages never overlap
	query += " ORDER BY created_at DESC, run_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var runs []model.Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}
