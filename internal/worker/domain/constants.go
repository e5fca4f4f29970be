package domain

// Run status constants
const (
	RunStatusPending   = "PENDING"
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// JobStatusSkipped marks a job config that failed to parse and never ran
const JobStatusSkipped = "SKIPPED"
