package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Jobs
// ---------------------------------------------------------------------------

// JobType identifies the kind of work a sync job performs.
type JobType string

const (
	JobTypeOrderSync     JobType = "order-sync"
	JobTypeStockPull     JobType = "stock-pull"
	JobTypeFullStockSync JobType = "full-stock-sync"
	JobTypeProductSync   JobType = "product-sync"
)

// IsValid returns true if the job type is known.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeOrderSync, JobTypeStockPull, JobTypeFullStockSync, JobTypeProductSync:
		return true
	default:
		return false
	}
}

// SyncJob is one unit of scheduled sync work. The payload is an opaque
// key-value bag interpreted by the matching handler.
type SyncJob struct {
	ID          uuid.UUID
	Type        JobType
	Payload     map[string]string
	Group       string
	RetryCount  int
	MaxRetries  int
	ScheduledAt time.Time
	EnqueuedAt  time.Time
	LastError   string
}

// NewSyncJob creates a pending sync job.
func NewSyncJob(jobType JobType, payload map[string]string, group string, maxRetries int) *SyncJob {
	if payload == nil {
		payload = make(map[string]string)
	}
	return &SyncJob{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payload,
		Group:      group,
		MaxRetries: maxRetries,
		EnqueuedAt: time.Now(),
	}
}

// DedupKey returns the duplicate-submission guard key: job type plus the
// canonical payload rendering. Two jobs with equal keys never coexist in
// the pending queue.
func (j *SyncJob) DedupKey() string {
	return DedupKey(j.Type, j.Payload)
}

// DedupKey builds the scheduling dedup key for a job type and payload.
// Payload keys are rendered in sorted order so map iteration order cannot
// produce distinct keys for the same logical job.
func DedupKey(jobType JobType, payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(jobType))
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(payload[k])
	}
	return b.String()
}

// NextBackoff returns the delay before the next attempt: 2^retryCount
// minutes, with the failure that triggered the retry already recorded.
func (j *SyncJob) NextBackoff() time.Duration {
	return time.Duration(1<<uint(j.RetryCount)) * time.Minute
}

// Exhausted returns true once the job has used up its retry budget.
func (j *SyncJob) Exhausted() bool {
	return j.RetryCount >= j.MaxRetries
}

// RecordFailure increments the retry counter and remembers the error text.
func (j *SyncJob) RecordFailure(err error) {
	j.RetryCount++
	if err != nil {
		j.LastError = err.Error()
	}
}

// ResetForResubmit clears retry state for a manual dead-letter resubmission.
func (j *SyncJob) ResetForResubmit() {
	j.RetryCount = 0
	j.LastError = ""
	j.ScheduledAt = time.Time{}
}

// String returns a compact description for logs.
func (j *SyncJob) String() string {
	return fmt.Sprintf("%s(%s)", j.Type, j.ID)
}

// ---------------------------------------------------------------------------
// Scheduler Port
// ---------------------------------------------------------------------------

// Scheduler is the capability contract the sync core requires from a job
// queue backend. Implementations must enforce the dedup-key guard at
// scheduling time and run each job to completion on a single worker.
type Scheduler interface {
	// ScheduleOnce enqueues a job to run once after the given delay.
	// Returns ErrDuplicateJob when a pending job with the same dedup key
	// already exists.
	ScheduleOnce(ctx context.Context, job *SyncJob, delay time.Duration) error

	// ScheduleRecurring enqueues a job to run at a fixed interval.
	ScheduleRecurring(ctx context.Context, jobType JobType, payload map[string]string, interval time.Duration, group string) error

	// HasScheduled reports whether a pending job matches the type/payload.
	HasScheduled(ctx context.Context, jobType JobType, payload map[string]string, group string) (bool, error)

	// CancelAll removes all pending jobs matching the type/payload and
	// returns the number removed. In-flight executions are not interrupted.
	CancelAll(ctx context.Context, jobType JobType, payload map[string]string, group string) (int, error)

	// CountPending returns the number of pending jobs in a group.
	CountPending(ctx context.Context, group string) (int, error)
}

// JobHandler executes one dequeued sync job.
type JobHandler interface {
	Handle(ctx context.Context, job *SyncJob) error
}

// JobHandlerFunc adapts a function to the JobHandler interface.
type JobHandlerFunc func(ctx context.Context, job *SyncJob) error

// Handle calls f(ctx, job).
func (f JobHandlerFunc) Handle(ctx context.Context, job *SyncJob) error {
	return f(ctx, job)
}
