// Package worker consumes run requests from RabbitMQ and executes each run
// with a fresh orchestrator.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sirfoga/gamer/internal/orchestrator"
	"github.com/sirfoga/gamer/internal/worker/domain"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	defaultRunTimeout        = 2 * time.Hour
)

// Broker is the part of the message broker the worker consumes from
type Broker interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
	Ack(deliveryTag uint64) error
	Nack(deliveryTag uint64, requeue bool) error
}

// RunStore persists run state and reports
type RunStore interface {
	ClaimRun(ctx context.Context, runID, workerID string) (*domain.Run, error)
	UpdateRunHeartbeat(ctx context.Context, runID string) error
	CompleteRun(ctx context.Context, runID string, report orchestrator.Report) error
	FailRun(ctx context.Context, runID, errorMsg string) error
}

// OrchestratorFactory builds the orchestrator for one run
type OrchestratorFactory func(configFolder string) (*orchestrator.Orchestrator, error)

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Broker            Broker
	Store             RunStore
	NewOrchestrator   OrchestratorFactory
	WorkerID          string
	QueueName         string
	Concurrency       int
	PrefetchCount     int
	RunTimeout        time.Duration
	HeartbeatInterval time.Duration
}

// Worker represents the background run worker
type Worker struct {
	logger            *slog.Logger
	broker            Broker
	store             RunStore
	newOrchestrator   OrchestratorFactory
	workerID          string
	queueName         string
	concurrency       int
	prefetchCount     int
	runTimeout        time.Duration
	heartbeatInterval time.Duration

	runsChan chan *domain.RunMessage
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) (*Worker, error) {
	if cfg.Broker == nil {
		return nil, fmt.Errorf("broker is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("run store is required")
	}
	if cfg.NewOrchestrator == nil {
		return nil, fmt.Errorf("orchestrator factory is required")
	}
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be greater than 0")
	}

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = defaultWorkerID()
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = cfg.Concurrency
	}

	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		logger:            logger,
		broker:            cfg.Broker,
		store:             cfg.Store,
		newOrchestrator:   cfg.NewOrchestrator,
		workerID:          workerID,
		queueName:         cfg.QueueName,
		concurrency:       cfg.Concurrency,
		prefetchCount:     prefetch,
		runTimeout:        runTimeout,
		heartbeatInterval: heartbeat,
		runsChan:          make(chan *domain.RunMessage),
		stopChan:          make(chan struct{}),
	}, nil
}

// defaultWorkerID combines the host name with a random suffix
func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// Start subscribes to the run queue and processes runs until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("run_timeout", w.runTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	dispatchErr := make(chan error, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		dispatchErr <- w.startMessageDispatcher(ctx, deliveries)
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("Worker context canceled, stopping...")
		return nil
	case err := <-dispatchErr:
		return err
	}
}

// Stop signals all goroutines to exit and waits for them
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
