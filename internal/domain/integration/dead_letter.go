package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Dead Letters
// ---------------------------------------------------------------------------

// DeadLetterResolution records how an operator resolved a dead letter.
type DeadLetterResolution string

const (
	// DeadLetterResolutionRetry re-enqueues the job with a fresh retry budget.
	DeadLetterResolutionRetry DeadLetterResolution = "RETRY"
	// DeadLetterResolutionDiscard abandons the job.
	DeadLetterResolutionDiscard DeadLetterResolution = "DISCARD"
)

// DeadLetterEntry is a sync job that exhausted its retry budget, parked
// for manual resolution. The payload snapshot is sufficient to rebuild
// the original job.
type DeadLetterEntry struct {
	ID           uuid.UUID
	JobType      JobType
	Group        string
	Payload      map[string]string
	ErrorMessage string
	Attempts     int
	FailedAt     time.Time
	ResolvedAt   *time.Time
	Resolution   DeadLetterResolution
}

// NewDeadLetterEntry parks an exhausted job.
func NewDeadLetterEntry(job *SyncJob) *DeadLetterEntry {
	return &DeadLetterEntry{
		ID:           uuid.New(),
		JobType:      job.Type,
		Group:        job.Group,
		Payload:      job.Payload,
		ErrorMessage: job.LastError,
		Attempts:     job.RetryCount,
		FailedAt:     time.Now(),
	}
}

// IsResolved returns true once the entry has been resolved.
func (e *DeadLetterEntry) IsResolved() bool {
	return e.ResolvedAt != nil
}

// Resolve marks the entry resolved. Returns ErrDeadLetterResolved when
// called twice.
func (e *DeadLetterEntry) Resolve(resolution DeadLetterResolution) error {
	if e.IsResolved() {
		return ErrDeadLetterResolved
	}
	now := time.Now()
	e.ResolvedAt = &now
	e.Resolution = resolution
	return nil
}

// ToJob rebuilds a sync job from the payload snapshot with retry state
// reset. Lifetime retries across repeated dead-letter cycles are not
// capped; each cycle needs an explicit operator resubmit.
func (e *DeadLetterEntry) ToJob(maxRetries int) *SyncJob {
	return NewSyncJob(e.JobType, e.Payload, e.Group, maxRetries)
}

// DeadLetterRepository persists dead letter entries.
type DeadLetterRepository interface {
	Insert(ctx context.Context, entry *DeadLetterEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*DeadLetterEntry, error)
	ListUnresolved(ctx context.Context, limit int) ([]DeadLetterEntry, error)
	MarkResolved(ctx context.Context, entry *DeadLetterEntry) error
}
