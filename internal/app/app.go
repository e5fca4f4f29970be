// Package app wires configuration sections into the clients and
// components shared by the gamer binaries.
package app

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sirfoga/gamer/internal/config"
	"github.com/sirfoga/gamer/internal/game"
	"github.com/sirfoga/gamer/internal/orchestrator"
	"github.com/sirfoga/gamer/shared/logger"
	"github.com/sirfoga/gamer/shared/postgresql"
	"github.com/sirfoga/gamer/shared/rabbitmq"
)

// LoadEnv loads a .env file from the working directory if there is one
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}
}

// ConfigPathFlag registers the -config flag, defaulting to envVar or fallback
func ConfigPathFlag(fs *flag.FlagSet, envVar, fallback string) *string {
	defaultPath := os.Getenv(envVar)
	if defaultPath == "" {
		defaultPath = fallback
	}
	return fs.String("config", defaultPath, "Path to configuration file")
}

// LoadConfig reads the config file and fills in defaults
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// NewLogger initializes and configures the application logger
func NewLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		NoColor:      cfg.NoColor,
	})
}

// NewPostgreSQL initializes the PostgreSQL database client
func NewPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// RabbitMQConfig converts the rabbitmq section into client settings
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}
}

// NewRabbitMQ initializes the RabbitMQ client
func NewRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(RabbitMQConfig(cfg), logger)
}

// NewProcedure builds the per-job procedure selected by the procedure section
func NewProcedure(cfg *config.Config, logger *slog.Logger) (*game.Driver, error) {
	var model game.Model
	switch cfg.Procedure.Kind {
	case config.ProcedureKindLog:
		model = game.NewLogModel(logger)
	case config.ProcedureKindExec:
		execModel, err := game.NewExecModel(cfg.Procedure.Command, cfg.Procedure.Args, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create exec model: %w", err)
		}
		model = execModel
	default:
		return nil, fmt.Errorf("unknown procedure kind: %q", cfg.Procedure.Kind)
	}

	return game.NewDriver(&game.DriverConfig{
		Logger:           logger,
		Model:            model,
		LabelsFile:       cfg.Procedure.AdditionalLabelsFile,
		PrimaryOutput:    cfg.Procedure.PrimaryOutput,
		AdditionalOutput: cfg.Procedure.AdditionalOutput,
		ArchiveFolder:    cfg.Output.ArchiveFolder,
	})
}

// NewOrchestrator builds an orchestrator for configFolder using the runner sections of cfg
func NewOrchestrator(cfg *config.Config, configFolder string, procedure orchestrator.JobProcedure, logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(&orchestrator.Config{
		Logger:       logger,
		ConfigFolder: configFolder,
		Suffix:       cfg.Discovery.Suffix,
		Procedure:    procedure,
		JobTimeout:   cfg.Runner.JobTimeout,
	})
}
