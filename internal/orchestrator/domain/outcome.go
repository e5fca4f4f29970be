package domain

import "time"

// JobOutcome is the terminal state of one job task
type JobOutcome struct {
	SourcePath string
	Status     string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether the job reached JobStatusSucceeded
func (o JobOutcome) Succeeded() bool {
	return o.Status == JobStatusSucceeded
}

// Duration returns how long the job ran
func (o JobOutcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
