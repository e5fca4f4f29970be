package domain

import (
	"errors"
)

const (
	RunStatusPending   = "PENDING"
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

var (
	ErrRunNotFound = errors.New("run not found")
)

// IsValidRunStatus reports whether status is a known run status
func IsValidRunStatus(status string) bool {
	switch status {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}
