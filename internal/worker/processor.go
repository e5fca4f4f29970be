package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sirfoga/gamer/internal/worker/domain"
)

// processRun claims a run, executes it and stores the outcome. A run whose
// outcome was stored returns nil even when it failed, so its message is acked.
func (w *Worker) processRun(ctx context.Context, msg *domain.RunMessage) error {
	run, err := w.store.ClaimRun(ctx, msg.RunID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrRunAlreadyClaimed) {
			return fmt.Errorf("run already claimed: %w", err)
		}
		// Database errors may be transient
		return domain.NewRetryableError(fmt.Errorf("failed to claim run: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	heartbeatDone := make(chan struct{})
	go w.sendRunHeartbeat(runCtx, run.RunID, heartbeatDone)
	defer close(heartbeatDone)

	orch, err := w.newOrchestrator(run.ConfigFolder)
	if err != nil {
		return w.failRun(ctx, run.RunID, fmt.Errorf("failed to create orchestrator: %w", err))
	}

	if _, err := orch.Discover(runCtx); err != nil {
		return w.failRun(ctx, run.RunID, err)
	}

	summary := orch.Run(runCtx)
	report := summary.Report()

	if err := w.store.CompleteRun(ctx, run.RunID, report); err != nil {
		return fmt.Errorf("failed to store run report: %w", err)
	}

	w.logger.Info("Run completed",
		slog.String("run_id", run.RunID),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", len(report.Skipped)),
	)

	return nil
}

// failRun records a run that could not produce a report
func (w *Worker) failRun(ctx context.Context, runID string, cause error) error {
	w.logger.Error("Run failed",
		slog.String("run_id", runID),
		slog.String("error", cause.Error()),
	)

	if err := w.store.FailRun(ctx, runID, cause.Error()); err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// sendRunHeartbeat periodically updates the run's heartbeat timestamp
func (w *Worker) sendRunHeartbeat(ctx context.Context, runID string, done <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := w.store.UpdateRunHeartbeat(ctx, runID); err != nil {
				w.logger.Warn("Failed to update run heartbeat",
					slog.String("run_id", runID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
