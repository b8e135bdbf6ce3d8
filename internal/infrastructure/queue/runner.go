package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

// Source is the claim side of a scheduler backend. Claim hands each due job
// to exactly one worker; Reschedule puts a failed job back with a delay.
type Source interface {
	Claim(ctx context.Context) (*integration.SyncJob, error)
	Reschedule(ctx context.Context, job *integration.SyncJob, delay time.Duration) error
}

// Runner drains a job source with a pool of workers. Failed jobs go back to
// the source with exponential backoff until the retry budget is spent, then
// they are parked as dead letters.
type Runner struct {
	config      RunnerConfig
	source      Source
	deadLetters integration.DeadLetterRepository
	logger      *zap.Logger

	handlersMu sync.RWMutex
	handlers   map[integration.JobType]integration.JobHandler

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRunner creates a new Runner.
func NewRunner(config RunnerConfig, source Source, deadLetters integration.DeadLetterRepository, logger *zap.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:      config,
		source:      source,
		deadLetters: deadLetters,
		logger:      logger,
		handlers:    make(map[integration.JobType]integration.JobHandler),
	}, nil
}

// Register binds a handler to a job type. Registering a type twice replaces
// the previous handler.
func (r *Runner) Register(jobType integration.JobType, handler integration.JobHandler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers[jobType] = handler
}

// Start starts the worker pool.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}

	r.logger.Info("Job runner started",
		zap.Int("workers", r.config.Workers),
		zap.Duration("poll_interval", r.config.PollInterval),
		zap.Duration("job_timeout", r.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the worker pool, waiting for in-flight jobs up to
// the context deadline.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Job runner stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Job runner stop timed out")
		return ctx.Err()
	}
}

// worker polls the source for due jobs and runs them to completion.
func (r *Runner) worker(ctx context.Context, workerID int) {
	defer r.wg.Done()

	r.logger.Debug("Job worker started", zap.Int("worker_id", workerID))
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Job worker stopping", zap.Int("worker_id", workerID))
			return
		case <-ticker.C:
			for {
				job, err := r.source.Claim(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.logger.Error("Job claim failed", zap.Int("worker_id", workerID), zap.Error(err))
					}
					break
				}
				if job == nil {
					break
				}
				r.processJob(ctx, job, workerID)
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// processJob runs one job and routes its outcome: success drops the job,
// retryable failure goes back to the source with backoff, exhaustion parks
// it as a dead letter.
func (r *Runner) processJob(ctx context.Context, job *integration.SyncJob, workerID int) {
	handler := r.handlerFor(job.Type)
	if handler == nil {
		r.logger.Error("No handler for job type",
			zap.Int("worker_id", workerID),
			zap.String("job", job.String()),
		)
		r.park(ctx, job, ErrNoHandler)
		return
	}

	r.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job", job.String()),
		zap.String("group", job.Group),
		zap.Int("retry_count", job.RetryCount),
	)

	jobCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	err := handler.Handle(jobCtx, job)
	cancel()

	if err == nil {
		r.logger.Info("Job completed",
			zap.Int("worker_id", workerID),
			zap.String("job", job.String()),
		)
		return
	}

	// The failure is recorded before the backoff is computed so the first
	// retry waits two minutes, the second four, doubling from there.
	job.RecordFailure(err)
	delay := job.NextBackoff()

	r.logger.Error("Job failed",
		zap.Int("worker_id", workerID),
		zap.String("job", job.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err),
	)

	if job.Exhausted() {
		r.park(ctx, job, err)
		return
	}

	if err := r.source.Reschedule(ctx, job, delay); err != nil {
		r.logger.Error("Job reschedule failed",
			zap.String("job", job.String()),
			zap.Error(err),
		)
	}
}

// park moves an exhausted job into the dead letter store.
func (r *Runner) park(ctx context.Context, job *integration.SyncJob, cause error) {
	if job.LastError == "" && cause != nil {
		job.LastError = cause.Error()
	}
	entry := integration.NewDeadLetterEntry(job)
	if err := r.deadLetters.Insert(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Error("Dead letter insert failed",
			zap.String("job", job.String()),
			zap.Error(err),
		)
		return
	}
	r.logger.Warn("Job parked as dead letter",
		zap.String("job", job.String()),
		zap.String("dead_letter_id", entry.ID.String()),
		zap.Int("attempts", entry.Attempts),
	)
}

// handlerFor looks up the handler for a job type.
func (r *Runner) handlerFor(jobType integration.JobType) integration.JobHandler {
	r.handlersMu.RLock()
	defer r.handlersMu.RUnlock()
	return r.handlers[jobType]
}
