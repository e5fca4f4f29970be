// Package cli implements the gamer command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/sirfoga/gamer/internal/app"
	"github.com/sirfoga/gamer/internal/compute"
	"github.com/sirfoga/gamer/internal/config"
	"github.com/sirfoga/gamer/internal/orchestrator"
	"github.com/sirfoga/gamer/shared/fsutil"
	"github.com/sirfoga/gamer/shared/logger"
)

const (
	// ExitFailure is used when a run cannot complete
	ExitFailure = 1
	// ExitUsage is used for invalid arguments or configuration
	ExitUsage = 2

	configPathEnv     = "GAMER_CONFIG_PATH"
	defaultConfigPath = "configs/gamer/config.yaml"
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

func failure(err error) *ExitError {
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

const usage = `gamer - discover job configs in a folder and run them concurrently.

Usage:
  gamer run [-config FILE] [-summary-out FILE] [-dry-run] [FOLDER]
  gamer compute [-config FILE] [-units N] [-pool P] [-label L]

Commands:
  run       Discover every job config under FOLDER and run all jobs.
  compute   Spread the built-in intensive calculation over a worker pool.

Run "gamer COMMAND -h" for the options of a command.
`

// Run executes the gamer command line described by args
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runJobs(ctx, args[1:], stdout, stderr)
	case "compute":
		return runCompute(ctx, args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return usageError("unknown command %q", args[0])
	}
}

func runJobs(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := flag.NewFlagSet("gamer run", flag.ContinueOnError)
	flagSet.SetOutput(stderr)

	configPath := app.ConfigPathFlag(flagSet, configPathEnv, defaultConfigPath)
	summaryOut := flagSet.String("summary-out", "", "Write the run report as JSON to this file")
	dryRun := flagSet.Bool("dry-run", false, "Log model calls instead of running the model")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}
	if flagSet.NArg() > 1 {
		return usageError("expected at most one FOLDER argument, got %d", flagSet.NArg())
	}

	cfg, err := loadConfig(*configPath, isSet(flagSet, "config"))
	if err != nil {
		return usageError("%v", err)
	}
	if flagSet.NArg() == 1 {
		cfg.Discovery.ConfigFolder = flagSet.Arg(0)
	}
	if *dryRun {
		cfg.Procedure.Kind = config.ProcedureKindLog
	}
	if err := cfg.Validate(); err != nil {
		return usageError("invalid config: %v", err)
	}

	appLogger, err := newLogger(&cfg.Logging, stdout, stderr)
	if err != nil {
		return failure(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer appLogger.Close()
	log := appLogger.Logger

	procedure, err := app.NewProcedure(cfg, log)
	if err != nil {
		return failure(fmt.Errorf("failed to create job procedure: %w", err))
	}

	orch, err := app.NewOrchestrator(cfg, cfg.Discovery.ConfigFolder, procedure, log)
	if err != nil {
		return failure(fmt.Errorf("failed to create orchestrator: %w", err))
	}

	if _, err := orch.Discover(ctx); err != nil {
		log.ErrorContext(ctx, "Discovery failed", slog.String("error", err.Error()))
		return failure(err)
	}

	summary := orch.Run(ctx)
	logSummary(ctx, log, summary)

	if *summaryOut != "" {
		if err := fsutil.WriteJSON(summary.Report(), *summaryOut); err != nil {
			return failure(fmt.Errorf("failed to write run report: %w", err))
		}
		log.InfoContext(ctx, "Run report written", slog.String("path", *summaryOut))
	}

	return nil
}

func runCompute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := flag.NewFlagSet("gamer compute", flag.ContinueOnError)
	flagSet.SetOutput(stderr)

	configPath := app.ConfigPathFlag(flagSet, configPathEnv, defaultConfigPath)
	units := flagSet.Int("units", 0, "Units are numbered 1 to N-1 (default from config)")
	pool := flagSet.Int("pool", 0, "Number of workers (default from config)")
	label := flagSet.String("label", "", "Label of the compute phase logs (default from config)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError("%v", err)
	}
	if flagSet.NArg() > 0 {
		return usageError("unexpected arguments: %v", flagSet.Args())
	}

	cfg, err := loadConfig(*configPath, isSet(flagSet, "config"))
	if err != nil {
		return usageError("%v", err)
	}
	if isSet(flagSet, "units") {
		cfg.Compute.TotalUnits = *units
	}
	if isSet(flagSet, "pool") {
		cfg.Compute.PoolSize = *pool
	}
	if isSet(flagSet, "label") {
		cfg.Compute.Label = *label
	}

	appLogger, err := newLogger(&cfg.Logging, stdout, stderr)
	if err != nil {
		return failure(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer appLogger.Close()

	fanOut := compute.NewFanOut(appLogger.Logger)
	err = fanOut.Run(ctx, cfg.Compute.Label, cfg.Compute.TotalUnits, cfg.Compute.PoolSize, compute.IntensiveCalc)
	switch {
	case errors.Is(err, compute.ErrInvalidPoolSize):
		return usageError("%v", err)
	case err != nil:
		return failure(err)
	}

	return nil
}

// loadConfig reads the config file. A missing file is only an error when the
// path was given explicitly; otherwise defaults are used.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := app.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = &config.Config{}
	cfg.ApplyDefaults()
	return cfg, nil
}

// newLogger sends stdout and stderr outputs to the command's writers
func newLogger(cfg *config.LoggingConfig, stdout, stderr io.Writer) (*logger.Logger, error) {
	switch cfg.Output {
	case "", "stdout":
		return logger.NewWithWriter(loggerConfig(cfg), stdout)
	case "stderr":
		return logger.NewWithWriter(loggerConfig(cfg), stderr)
	default:
		return app.NewLogger(cfg)
	}
}

func loggerConfig(cfg *config.LoggingConfig) *logger.Config {
	return &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		EnableSource: cfg.EnableCaller,
		NoColor:      cfg.NoColor,
	}
}

func logSummary(ctx context.Context, log *slog.Logger, summary *orchestrator.Summary) {
	for _, outcome := range summary.Outcomes() {
		attrs := []any{
			slog.String("source_path", outcome.SourcePath),
			slog.String("status", outcome.Status),
			slog.Duration("elapsed", outcome.Duration()),
		}
		if outcome.Err != nil {
			attrs = append(attrs, slog.String("error", outcome.Err.Error()))
		}
		log.InfoContext(ctx, "Job outcome", attrs...)
	}

	for _, skipped := range summary.Skipped() {
		log.WarnContext(ctx, "Job config skipped",
			slog.String("source_path", skipped.SourcePath),
			slog.String("error", skipped.Err.Error()),
		)
	}
}

func isSet(flagSet *flag.FlagSet, name string) bool {
	set := false
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
