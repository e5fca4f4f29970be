package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sirfoga/gamer/internal/orchestrator"
	"github.com/sirfoga/gamer/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// runJobRow is one row of the run_jobs table
type runJobRow struct {
	RunID        string         `db:"run_id"`
	SourcePath   string         `db:"source_path"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	StartedAt    sql.NullTime   `db:"started_at"`
	FinishedAt   sql.NullTime   `db:"finished_at"`
	DurationMS   int64          `db:"duration_ms"`
}

// ClaimRun moves a run from PENDING to RUNNING. Only one worker can win the
// claim; the others get domain.ErrRunAlreadyClaimed.
func (s *Storage) ClaimRun(ctx context.Context, runID, workerID string) (*domain.Run, error) {
	query := `
		UPDATE runs
		SET status = $1,
		    worker_id = $2,
		    started_at = NOW(),
		    last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $3
		  AND status = $4
		RETURNING run_id, config_folder
	`

	var run domain.Run
	err := s.db.GetContext(ctx, &run, query, domain.RunStatusRunning, workerID, runID, domain.RunStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim run - already claimed or not found",
				slog.String("run_id", runID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrRunAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim run: %w", err)
	}

	run.Status = domain.RunStatusRunning
	run.WorkerID = workerID

	s.logger.Info("Run claimed successfully",
		slog.String("run_id", runID),
		slog.String("worker_id", workerID),
		slog.String("config_folder", run.ConfigFolder),
	)

	return &run, nil
}

// UpdateRunHeartbeat updates the last_heartbeat_at timestamp for a running run
func (s *Storage) UpdateRunHeartbeat(ctx context.Context, runID string) error {
	query := `
		UPDATE runs
		SET last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $1 AND status = $2
	`

	result, err := s.db.ExecContext(ctx, query, runID, domain.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update run heartbeat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Run heartbeat update - no rows affected (run may not be running)",
			slog.String("run_id", runID),
		)
	}

	return nil
}

// CompleteRun stores the report of a finished run and marks it COMPLETED
func (s *Storage) CompleteRun(ctx context.Context, runID string, report orchestrator.Report) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE runs
		SET status = $1,
		    succeeded = $2,
		    failed = $3,
		    skipped = $4,
		    completed_at = $5,
		    updated_at = NOW()
		WHERE run_id = $6
	`

	_, err = tx.ExecContext(ctx, query,
		domain.RunStatusCompleted,
		report.Succeeded,
		report.Failed,
		len(report.Skipped),
		report.FinishedAt,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows := reportRows(runID, report)
	if len(rows) > 0 {
		insert := `
			INSERT INTO run_jobs (
				run_id, source_path, status, error_message,
				started_at, finished_at, duration_ms
			) VALUES (
				:run_id, :source_path, :status, :error_message,
				:started_at, :finished_at, :duration_ms
			)
		`
		if _, err := tx.NamedExecContext(ctx, insert, rows); err != nil {
			return fmt.Errorf("failed to insert run jobs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run report: %w", err)
	}

	s.logger.Info("Run report stored",
		slog.String("run_id", runID),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", len(report.Skipped)),
	)

	return nil
}

// FailRun marks a run FAILED when it could not produce a report
func (s *Storage) FailRun(ctx context.Context, runID, errorMsg string) error {
	query := `
		UPDATE runs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, domain.RunStatusFailed, errorMsg, runID); err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}

	s.logger.Info("Run marked failed",
		slog.String("run_id", runID),
		slog.String("error", errorMsg),
	)

	return nil
}

// reportRows flattens a report into run_jobs rows; skipped configs keep no timings
func reportRows(runID string, report orchestrator.Report) []runJobRow {
	rows := make([]runJobRow, 0, len(report.Jobs)+len(report.Skipped))

	for _, job := range report.Jobs {
		rows = append(rows, runJobRow{
			RunID:        runID,
			SourcePath:   job.SourcePath,
			Status:       job.Status,
			ErrorMessage: nullString(job.Error),
			StartedAt:    nullTime(job.StartedAt),
			FinishedAt:   nullTime(job.FinishedAt),
			DurationMS:   job.DurationMS,
		})
	}

	for _, skipped := range report.Skipped {
		rows = append(rows, runJobRow{
			RunID:        runID,
			SourcePath:   skipped.SourcePath,
			Status:       domain.JobStatusSkipped,
			ErrorMessage: nullString(skipped.Error),
		})
	}

	return rows
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
