package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfigDocument is returned when a job config is valid JSON but not an object
	ErrInvalidConfigDocument = errors.New("config document is not a JSON object")

	// ErrJobPanicked is wrapped into a JobExecutionError when the job procedure panics
	ErrJobPanicked = errors.New("job panicked")
)

// DiscoveryError is fatal: the config folder is missing or unreadable and no job was started
type DiscoveryError struct {
	Folder string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed to discover job configs in %s: %s", e.Folder, e.Err.Error())
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ConfigParseError marks a single job config that could not be read or parsed.
// The config is skipped and the rest of the batch proceeds.
type ConfigParseError struct {
	SourcePath string
	Err        error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse job config %s: %s", e.SourcePath, e.Err.Error())
}

func (e *ConfigParseError) Unwrap() error {
	return e.Err
}

// JobExecutionError is a failure of the job procedure for one job config
type JobExecutionError struct {
	SourcePath string
	Err        error
}

func (e *JobExecutionError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.SourcePath, e.Err.Error())
}

func (e *JobExecutionError) Unwrap() error {
	return e.Err
}

// NewJobExecutionError creates a new job execution error
func NewJobExecutionError(sourcePath string, err error) error {
	return &JobExecutionError{SourcePath: sourcePath, Err: err}
}
