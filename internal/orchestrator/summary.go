package orchestrator

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirfoga/gamer/internal/orchestrator/domain"
)

// Summary maps every job source path to its outcome
type Summary struct {
	StartedAt  time.Time
	FinishedAt time.Time

	mu       sync.Mutex
	outcomes map[string]domain.JobOutcome
	skipped  []*domain.ConfigParseError
}

func newSummary(configs []*domain.JobConfig, skipped []*domain.ConfigParseError) *Summary {
	outcomes := make(map[string]domain.JobOutcome, len(configs))
	for _, cfg := range configs {
		outcomes[cfg.SourcePath()] = domain.JobOutcome{
			SourcePath: cfg.SourcePath(),
			Status:     domain.JobStatusPending,
		}
	}

	return &Summary{
		StartedAt: time.Now(),
		outcomes:  outcomes,
		skipped:   append([]*domain.ConfigParseError(nil), skipped...),
	}
}

func (s *Summary) record(outcome domain.JobOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome.SourcePath] = outcome
}

func (s *Summary) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinishedAt = time.Now()
}

// Len returns the number of jobs that were started
func (s *Summary) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// Outcome returns the outcome of the job backed by sourcePath
func (s *Summary) Outcome(sourcePath string) (domain.JobOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[sourcePath]
	return o, ok
}

// Outcomes returns all outcomes sorted by source path
func (s *Summary) Outcomes() []domain.JobOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes := make([]domain.JobOutcome, 0, len(s.outcomes))
	for _, o := range s.outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].SourcePath < outcomes[j].SourcePath
	})
	return outcomes
}

// Succeeded returns the source paths of succeeded jobs, sorted
func (s *Summary) Succeeded() []string {
	return s.pathsWithStatus(domain.JobStatusSucceeded)
}

// Failed returns the source paths of failed jobs, sorted
func (s *Summary) Failed() []string {
	return s.pathsWithStatus(domain.JobStatusFailed)
}

// Skipped returns the configs left out of the run because they failed to parse
func (s *Summary) Skipped() []*domain.ConfigParseError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.ConfigParseError(nil), s.skipped...)
}

// Err joins the errors of all failed jobs, nil when every job succeeded
func (s *Summary) Err() error {
	var errs []error
	for _, o := range s.Outcomes() {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

func (s *Summary) pathsWithStatus(status string) []string {
	var paths []string
	for _, o := range s.Outcomes() {
		if o.Status == status {
			paths = append(paths, o.SourcePath)
		}
	}
	return paths
}
