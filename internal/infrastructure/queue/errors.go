package queue

import "errors"

var (
	// ErrNotRunning is returned when submitting work to a stopped runner
	ErrNotRunning = errors.New("queue: runner is not running")

	// ErrAlreadyRunning is returned when starting a runner twice
	ErrAlreadyRunning = errors.New("queue: runner is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("queue: invalid configuration")

	// ErrNoHandler is returned when a claimed job has no registered handler
	ErrNoHandler = errors.New("queue: no handler registered for job type")

	// ErrSchedulerClosed is returned when scheduling on a closed scheduler
	ErrSchedulerClosed = errors.New("queue: scheduler is closed")
)
