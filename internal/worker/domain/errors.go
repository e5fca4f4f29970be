package domain

import "errors"

var (
	// ErrRunAlreadyClaimed is returned when attempting to claim a run that's not PENDING
	ErrRunAlreadyClaimed = errors.New("run already claimed or not in PENDING status")

	// ErrInvalidMessage is returned when a run request cannot be decoded
	ErrInvalidMessage = errors.New("invalid run request message")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
