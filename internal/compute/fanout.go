// Package compute spreads a range of numbered work units over a bounded pool
// of workers.
package compute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultPoolSize is the number of workers used when none is configured
	DefaultPoolSize = 10
	// DefaultLabel tags phase logs when no label is given
	DefaultLabel = "compute"
)

// ErrInvalidPoolSize is returned when the pool has no workers
var ErrInvalidPoolSize = errors.New("pool size must be at least 1")

// UnitFunc computes one unit of work
type UnitFunc func(ctx context.Context, unit int) error

// ComputeUnitError reports the failure of a single unit
type ComputeUnitError struct {
	Unit int
	Err  error
}

func (e *ComputeUnitError) Error() string {
	return fmt.Sprintf("compute unit %d: %v", e.Unit, e.Err)
}

func (e *ComputeUnitError) Unwrap() error {
	return e.Err
}

// FanOut runs work units on a fixed number of workers
type FanOut struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFanOut creates a new fan-out instance
func NewFanOut(logger *slog.Logger) *FanOut {
	if logger == nil {
		logger = slog.Default()
	}
	return &FanOut{
		logger: logger,
		now:    time.Now,
	}
}

// Run evaluates unit for every integer in [1, totalUnits) using at most
// poolSize workers and returns once all units finished. Results are
// discarded. Every failing unit is reported as a *ComputeUnitError in the
// joined error; a failure does not stop the other units.
func (f *FanOut) Run(ctx context.Context, label string, totalUnits, poolSize int, unit UnitFunc) error {
	if poolSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPoolSize, poolSize)
	}
	if label == "" {
		label = DefaultLabel
	}

	f.logger.InfoContext(ctx, "Compute phase on",
		slog.String("label", label),
		slog.String("time", f.now().Format(time.TimeOnly)),
		slog.Int("units", max(totalUnits-1, 0)),
		slog.Int("pool_size", poolSize),
	)
	defer func() {
		f.logger.InfoContext(ctx, "Compute phase off",
			slog.String("label", label),
			slog.String("time", f.now().Format(time.TimeOnly)),
		)
	}()

	if totalUnits <= 1 {
		return nil
	}

	units := make(chan int)
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	for i := 0; i < min(poolSize, totalUnits-1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range units {
				if err := runUnit(ctx, unit, n); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

	for n := 1; n < totalUnits; n++ {
		units <- n
	}
	close(units)

	wg.Wait()

	if len(errs) > 0 {
		f.logger.WarnContext(ctx, "Compute units failed",
			slog.String("label", label),
			slog.Int("failed", len(errs)),
		)
	}

	return errors.Join(errs...)
}

func runUnit(ctx context.Context, unit UnitFunc, n int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputeUnitError{Unit: n, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := unit(ctx, n); err != nil {
		return &ComputeUnitError{Unit: n, Err: err}
	}
	return nil
}
