package model

import (
	"database/sql"
	"time"
)

type Run struct {
	RunID        string         `db:"run_id"`
	ConfigFolder string         `db:"config_folder"`
	Status       string         `db:"status"`
	WorkerID     sql.NullString `db:"worker_id"`
	Succeeded    int            `db:"succeeded"`
	Failed       int            `db:"failed"`
	Skipped      int            `db:"skipped"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	StartedAt    sql.NullTime   `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
}

type RunJob struct {
	SourcePath   string         `db:"source_path"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	StartedAt    sql.NullTime   `db:"started_at"`
	FinishedAt   sql.NullTime   `db:"finished_at"`
	DurationMS   int64          `db:"duration_ms"`
}
