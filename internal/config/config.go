package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

const (
	// ProcedureKindExec runs an external model command per job
	ProcedureKindExec = "exec"
	// ProcedureKindLog only logs what a job would run
	ProcedureKindLog = "log"

	defaultSuffix        = ".json"
	defaultComputeUnits  = 100
	defaultComputePool   = 10
	defaultComputeLabel  = "compute"
	defaultLoggingLevel  = "info"
	defaultLoggingFormat = "console"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Logging   LoggingConfig   `yaml:"logging"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Procedure ProcedureConfig `yaml:"procedure"`
	Runner    RunnerConfig    `yaml:"runner"`
	Output    OutputConfig    `yaml:"output"`
	Compute   ComputeConfig   `yaml:"compute"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Worker    WorkerConfig    `yaml:"worker"`
}

// DiscoveryConfig controls where job configs are searched for
type DiscoveryConfig struct {
	ConfigFolder string `yaml:"config_folder"`
	Suffix       string `yaml:"suffix"`
}

// ProcedureConfig selects the procedure run once per job
type ProcedureConfig struct {
	Kind                 string   `yaml:"kind"` // exec, log
	Command              string   `yaml:"command"`
	Args                 []string `yaml:"args"`
	AdditionalLabelsFile string   `yaml:"additional_labels_file"`
	PrimaryOutput        string   `yaml:"primary_output"`
	AdditionalOutput     string   `yaml:"additional_output"`
}

// RunnerConfig holds per-job execution limits
type RunnerConfig struct {
	JobTimeout time.Duration `yaml:"job_timeout"`
}

// OutputConfig holds where finished upload folders are moved
type OutputConfig struct {
	ArchiveFolder string `yaml:"archive_folder"`
}

// ComputeConfig holds the bounded compute fan-out settings
type ComputeConfig struct {
	TotalUnits int    `yaml:"total_units"`
	PoolSize   int    `yaml:"pool_size"`
	Label      string `yaml:"label"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
	NoColor      bool   `yaml:"no_color"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills zero values with their defaults
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLoggingLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLoggingFormat
	}
	if c.Discovery.Suffix == "" {
		c.Discovery.Suffix = defaultSuffix
	}
	if c.Procedure.Kind == "" {
		c.Procedure.Kind = ProcedureKindExec
	}
	if c.Compute.TotalUnits == 0 {
		c.Compute.TotalUnits = defaultComputeUnits
	}
	if c.Compute.PoolSize == 0 {
		c.Compute.PoolSize = defaultComputePool
	}
	if c.Compute.Label == "" {
		c.Compute.Label = defaultComputeLabel
	}
}

// Validate checks the sections used by the command line runner
func (c *Config) Validate() error {
	if c.Discovery.ConfigFolder == "" {
		return fmt.Errorf("discovery config_folder is required")
	}

	return c.validateRunner()
}

// validateRunner checks the sections shared by every binary that runs jobs
func (c *Config) validateRunner() error {
	if c.Discovery.Suffix == "" {
		return fmt.Errorf("discovery suffix is required")
	}

	switch c.Procedure.Kind {
	case ProcedureKindExec:
		if c.Procedure.Command == "" {
			return fmt.Errorf("procedure command is required for kind %q", ProcedureKindExec)
		}
	case ProcedureKindLog:
	default:
		return fmt.Errorf("invalid procedure kind: %q (must be %q or %q)", c.Procedure.Kind, ProcedureKindExec, ProcedureKindLog)
	}

	if c.Runner.JobTimeout < 0 {
		return fmt.Errorf("runner job_timeout must not be negative")
	}

	if c.Compute.PoolSize < 1 {
		return fmt.Errorf("compute pool_size must be greater than 0")
	}

	return nil
}

// ValidateAPIConfig checks the sections used by the api service
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}

// ValidateWorkerConfig checks the sections used by the worker service
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateRunner(); err != nil {
		return err
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.RunTimeout <= 0 {
		return fmt.Errorf("worker run_timeout must be greater than 0")
	}

	if c.Worker.HeartbeatInterval <= 0 {
		return fmt.Errorf("worker heartbeat_interval must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return nil
}
