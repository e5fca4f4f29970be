// Package orchestrator turns a folder of job config files into a set of
// concurrently running jobs and waits for all of them to finish.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sirfoga/gamer/internal/orchestrator/domain"
	"github.com/sirfoga/gamer/shared/fsutil"
)

// JobProcedure is the external procedure invoked once per job
type JobProcedure interface {
	RunGame(ctx context.Context, args domain.Arguments) error
}

// Config holds orchestrator configuration
type Config struct {
	Logger       *slog.Logger
	ConfigFolder string
	Suffix       string
	Procedure    JobProcedure
	// JobTimeout bounds each job; zero means no deadline
	JobTimeout time.Duration
	// ReadFile reads job config files; nil uses os.ReadFile
	ReadFile domain.ReadFunc
}

// Orchestrator discovers job configs and runs them concurrently
type Orchestrator struct {
	logger       *slog.Logger
	configFolder string
	suffix       string
	procedure    JobProcedure
	jobTimeout   time.Duration
	readFile     domain.ReadFunc

	mu      sync.Mutex
	configs []*domain.JobConfig
	skipped []*domain.ConfigParseError
}

// New creates a new orchestrator instance
func New(cfg *Config) (*Orchestrator, error) {
	if cfg.ConfigFolder == "" {
		return nil, fmt.Errorf("config folder is required")
	}
	if cfg.Procedure == nil {
		return nil, fmt.Errorf("job procedure is required")
	}

	suffix := cfg.Suffix
	if suffix == "" {
		suffix = domain.ConfigSuffix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		logger:       logger,
		configFolder: cfg.ConfigFolder,
		suffix:       suffix,
		procedure:    cfg.Procedure,
		jobTimeout:   cfg.JobTimeout,
		readFile:     cfg.ReadFile,
	}, nil
}

// Discover scans the config folder and loads one job config per file.
// Listing failures are fatal and returned as *domain.DiscoveryError. Files
// that fail to parse are left out of the run and returned as warnings.
func (o *Orchestrator) Discover(ctx context.Context) ([]*domain.ConfigParseError, error) {
	o.logger.InfoContext(ctx, "Discovering job configs",
		slog.String("config_folder", o.configFolder),
		slog.String("suffix", o.suffix),
	)

	paths, err := fsutil.SelectBySuffix(o.configFolder, o.suffix)
	if err != nil {
		return nil, &domain.DiscoveryError{Folder: o.configFolder, Err: err}
	}

	configs := make([]*domain.JobConfig, 0, len(paths))
	var skipped []*domain.ConfigParseError

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, &domain.DiscoveryError{Folder: o.configFolder, Err: err}
		}

		cfg, err := domain.Load(path, o.readFile)
		if err != nil {
			var parseErr *domain.ConfigParseError
			if !errors.As(err, &parseErr) {
				parseErr = &domain.ConfigParseError{SourcePath: path, Err: err}
			}
			o.logger.WarnContext(ctx, "Skipping job config",
				slog.String("source_path", path),
				slog.String("error", parseErr.Err.Error()),
			)
			skipped = append(skipped, parseErr)
			continue
		}

		configs = append(configs, cfg)
	}

	o.mu.Lock()
	o.configs = configs
	o.skipped = skipped
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "Job configs discovered",
		slog.Int("configs", len(configs)),
		slog.Int("skipped", len(skipped)),
	)

	return skipped, nil
}

// Configs returns the job configs found by the last discovery
func (o *Orchestrator) Configs() []*domain.JobConfig {
	o.mu.Lock()
	defer o.mu.Unlock()

	configs := make([]*domain.JobConfig, len(o.configs))
	copy(configs, o.configs)
	return configs
}

// Run starts one task per discovered job config and returns once every task
// reached a terminal state. A failing job never stops its siblings.
func (o *Orchestrator) Run(ctx context.Context) *Summary {
	o.mu.Lock()
	configs := make([]*domain.JobConfig, len(o.configs))
	copy(configs, o.configs)
	skipped := o.skipped
	o.mu.Unlock()

	summary := newSummary(configs, skipped)

	o.logger.InfoContext(ctx, "Starting jobs",
		slog.Int("jobs", len(configs)),
	)

	var g errgroup.Group
	for _, cfg := range configs {
		g.Go(func() error {
			summary.record(o.runJob(ctx, cfg))
			return nil
		})
	}
	_ = g.Wait()

	summary.finish()

	o.logger.InfoContext(ctx, "All jobs finished",
		slog.Int("jobs", len(configs)),
		slog.Int("succeeded", len(summary.Succeeded())),
		slog.Int("failed", len(summary.Failed())),
		slog.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary
}

// runJob drives one job from RUNNING to SUCCEEDED or FAILED
func (o *Orchestrator) runJob(ctx context.Context, cfg *domain.JobConfig) domain.JobOutcome {
	logger := o.logger.With(slog.String("source_path", cfg.SourcePath()))

	outcome := domain.JobOutcome{
		SourcePath: cfg.SourcePath(),
		Status:     domain.JobStatusRunning,
		StartedAt:  time.Now(),
	}

	logger.InfoContext(ctx, "Job started")

	jobCtx := ctx
	if o.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, o.jobTimeout)
		defer cancel()
	}

	err := o.invoke(jobCtx, cfg)
	outcome.FinishedAt = time.Now()

	if err != nil {
		outcome.Status = domain.JobStatusFailed
		outcome.Err = domain.NewJobExecutionError(cfg.SourcePath(), err)

		logger.ErrorContext(ctx, "Job failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", outcome.Duration()),
		)
		return outcome
	}

	outcome.Status = domain.JobStatusSucceeded

	logger.InfoContext(ctx, "Job succeeded",
		slog.Duration("elapsed", outcome.Duration()),
	)

	return outcome
}

// invoke calls the procedure and turns a panic into an error
func (o *Orchestrator) invoke(ctx context.Context, cfg *domain.JobConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrJobPanicked, r)
		}
	}()

	return o.procedure.RunGame(ctx, cfg.JobArguments())
}
