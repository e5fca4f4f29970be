package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sirfoga/gamer/internal/worker/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	logger := w.logger.With(slog.String("worker_name", workerName))
	logger.Debug("Worker goroutine started")

	for {
		select {
		case <-w.stopChan:
			logger.Debug("Worker goroutine stopping - stopChan closed")
			return

		case <-ctx.Done():
			logger.Debug("Worker goroutine stopping - context canceled")
			return

		case msg, ok := <-w.runsChan:
			if !ok {
				logger.Debug("Worker goroutine stopping - runsChan closed")
				return
			}

			w.handleMessage(ctx, logger, msg)
		}
	}
}

// handleMessage processes one run request and settles its delivery
func (w *Worker) handleMessage(ctx context.Context, logger *slog.Logger, msg *domain.RunMessage) {
	logger = logger.With(slog.String("run_id", msg.RunID))
	logger.Info("Worker received run", slog.Uint64("delivery_tag", msg.DeliveryTag))

	err := w.processRun(ctx, msg)
	if err == nil {
		if ackErr := w.broker.Ack(msg.DeliveryTag); ackErr != nil {
			logger.Error("Failed to ACK message", slog.String("error", ackErr.Error()))
		}
		return
	}

	requeue := shouldRequeue(err)
	logger.Error("Run processing failed",
		slog.String("error", err.Error()),
		slog.Bool("requeue", requeue),
	)

	if nackErr := w.broker.Nack(msg.DeliveryTag, requeue); nackErr != nil {
		logger.Error("Failed to NACK message", slog.String("error", nackErr.Error()))
	}
}

// shouldRequeue reports whether a failed run request is worth retrying
func shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrRunAlreadyClaimed) {
		return false
	}

	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
