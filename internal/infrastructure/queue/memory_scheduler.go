package queue

import (
	"context"
	"sync"
	"time"

	"github.com/erp/connector/internal/domain/integration"
)

// MemoryScheduler is an in-process Scheduler backend. It keeps pending jobs
// in a map guarded by a mutex and is suitable for single-instance
// deployments and tests; state is lost on restart.
type MemoryScheduler struct {
	mu      sync.Mutex
	pending map[string]*memoryEntry
	tickers []*recurringTicker
	closed  bool
	now     func() time.Time
}

type memoryEntry struct {
	job   *integration.SyncJob
	runAt time.Time
}

type recurringTicker struct {
	stop chan struct{}
}

// NewMemoryScheduler creates a new MemoryScheduler.
func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{
		pending: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// ScheduleOnce enqueues a job to run once after the given delay. A pending
// job with the same dedup key wins; the new submission is rejected with
// ErrDuplicateJob.
func (s *MemoryScheduler) ScheduleOnce(ctx context.Context, job *integration.SyncJob, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	key := job.DedupKey()
	if _, exists := s.pending[key]; exists {
		return integration.ErrDuplicateJob
	}

	runAt := s.now().Add(delay)
	job.ScheduledAt = runAt
	s.pending[key] = &memoryEntry{job: job, runAt: runAt}
	return nil
}

// ScheduleRecurring enqueues a job at a fixed interval. Each tick submits a
// fresh job; ticks that collide with a still-pending previous job are
// dropped by the dedup guard.
func (s *MemoryScheduler) ScheduleRecurring(ctx context.Context, jobType integration.JobType, payload map[string]string, interval time.Duration, group string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	t := &recurringTicker{stop: make(chan struct{})}
	s.tickers = append(s.tickers, t)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				job := integration.NewSyncJob(jobType, payload, group, DefaultRunnerConfig().MaxRetries)
				if err := s.ScheduleOnce(context.Background(), job, 0); err != nil {
					continue
				}
			}
		}
	}()
	return nil
}

// HasScheduled reports whether a pending job matches the type/payload.
func (s *MemoryScheduler) HasScheduled(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.pending[integration.DedupKey(jobType, payload)]
	return exists, nil
}

// CancelAll removes all pending jobs matching the type/payload. The dedup
// guard means at most one pending job can match.
func (s *MemoryScheduler) CancelAll(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := integration.DedupKey(jobType, payload)
	if _, exists := s.pending[key]; !exists {
		return 0, nil
	}
	delete(s.pending, key)
	return 1, nil
}

// CountPending returns the number of pending jobs in a group. An empty
// group counts everything.
func (s *MemoryScheduler) CountPending(ctx context.Context, group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group == "" {
		return len(s.pending), nil
	}
	count := 0
	for _, entry := range s.pending {
		if entry.job.Group == group {
			count++
		}
	}
	return count, nil
}

// Claim removes and returns the due job with the earliest run time, or nil
// when nothing is due yet.
func (s *MemoryScheduler) Claim(ctx context.Context) (*integration.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var dueKey string
	var due *memoryEntry
	for key, entry := range s.pending {
		if entry.runAt.After(now) {
			continue
		}
		if due == nil || entry.runAt.Before(due.runAt) {
			dueKey = key
			due = entry
		}
	}
	if due == nil {
		return nil, nil
	}
	delete(s.pending, dueKey)
	return due.job, nil
}

// Reschedule re-enqueues a claimed job after the given delay, re-arming its
// dedup key.
func (s *MemoryScheduler) Reschedule(ctx context.Context, job *integration.SyncJob, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	runAt := s.now().Add(delay)
	job.ScheduledAt = runAt
	s.pending[job.DedupKey()] = &memoryEntry{job: job, runAt: runAt}
	return nil
}

// Close stops recurring tickers and rejects further scheduling.
func (s *MemoryScheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, t := range s.tickers {
		close(t.stop)
	}
	s.tickers = nil
	return nil
}

// Ensure MemoryScheduler implements the scheduler port and the job source
var (
	_ integration.Scheduler = (*MemoryScheduler)(nil)
	_ Source                = (*MemoryScheduler)(nil)
)
