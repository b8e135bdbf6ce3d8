package queue

import "time"

// RunnerConfig holds configuration for the job runner.
type RunnerConfig struct {
	// Workers is the number of concurrent job workers
	Workers int
	// PollInterval is how often idle workers check for due jobs
	PollInterval time.Duration
	// JobTimeout is the maximum time a single job may run
	JobTimeout time.Duration
	// MaxRetries is the retry budget assigned to resubmitted jobs
	MaxRetries int
}

// DefaultRunnerConfig returns default configuration
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: time.Second,
		JobTimeout:   5 * time.Minute,
		MaxRetries:   5,
	}
}

// Validate validates the configuration
func (c *RunnerConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxRetries < 0 {
		return ErrInvalidConfig
	}
	return nil
}
