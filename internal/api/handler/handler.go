package handler

import (
	"context"
	"log/slog"

	"github.com/sirfoga/gamer/internal/api/model"
	"github.com/sirfoga/gamer/internal/api/storage"
)

// RunStore is the run persistence used by the handlers
type RunStore interface {
	CreateRun(ctx context.Context, run *model.Run) error
	GetRunByID(ctx context.Context, runID string) (*model.Run, error)
	ListRunJobs(ctx context.Context, runID string) ([]model.RunJob, error)
	ListRuns(ctx context.Context, filter storage.RunFilter) ([]model.Run, error)
}

// Publisher sends run requests to the workers
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Store     RunStore
	Publisher Publisher
	Database  HealthChecker
}

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	logger    *slog.Logger
	store     RunStore
	publisher Publisher
}

// NewRunHandler creates a new RunHandler instance
func NewRunHandler(deps *Dependencies) *RunHandler {
	return &RunHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		publisher: deps.Publisher,
	}
}
