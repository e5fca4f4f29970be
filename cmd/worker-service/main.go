package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirfoga/gamer/internal/app"
	"github.com/sirfoga/gamer/internal/orchestrator"
	"github.com/sirfoga/gamer/internal/worker"
	"github.com/sirfoga/gamer/internal/worker/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	app.LoadEnv()

	configPath := app.ConfigPathFlag(flag.CommandLine, "WORKER_SERVICE_CONFIG_PATH", "configs/worker-service/config.yaml")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := app.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	procedure, err := app.NewProcedure(cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize procedure: %w", err)
	}

	dbClient, err := app.NewPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	rabbitClient, err := app.NewRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	workerInstance, err := worker.NewWorker(&worker.Config{
		Logger: appLogger.Logger,
		Broker: rabbitClient,
		Store:  storage.NewStorage(dbClient.GetDB(), appLogger.Logger),
		NewOrchestrator: func(configFolder string) (*orchestrator.Orchestrator, error) {
			return app.NewOrchestrator(cfg, configFolder, procedure, appLogger.Logger)
		},
		QueueName:         cfg.RabbitMQ.Queue.Name,
		Concurrency:       cfg.Worker.Concurrency,
		PrefetchCount:     cfg.RabbitMQ.Consumer.PrefetchCount,
		RunTimeout:        cfg.Worker.RunTimeout,
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := workerInstance.Start(ctx); err != nil {
		appLogger.Error("Worker error", slog.Any("error", err))
		workerInstance.Stop()
		return err
	}

	appLogger.Info("Received signal, shutting down gracefully")

	stopWorker(workerInstance, cfg.Worker.ShutdownTimeout, appLogger.Logger)

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// stopWorker waits for in-flight runs up to timeout
func stopWorker(w *worker.Worker, timeout time.Duration, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Worker stopped gracefully")
	case <-time.After(timeout):
		logger.Warn("Worker shutdown timeout exceeded, abandoning in-flight runs")
	}
}
