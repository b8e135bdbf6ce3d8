package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Log
// ---------------------------------------------------------------------------

// SyncDirection tells whether data flowed towards the ERP or from it.
type SyncDirection string

const (
	SyncDirectionPush SyncDirection = "PUSH"
	SyncDirectionPull SyncDirection = "PULL"
)

// SyncLogEntry is one append-only audit record of a sync attempt, with
// request/response snapshots for diagnosis. Entries are never mutated;
// retention pruning is age-based housekeeping.
type SyncLogEntry struct {
	ID               uuid.UUID
	SyncType         JobType
	LocalID          string
	ERPID            string
	Status           SyncStatus
	Direction        SyncDirection
	Message          string
	RequestSnapshot  string
	ResponseSnapshot string
	CreatedAt        time.Time
}

// NewSyncLogEntry creates an audit record stamped now.
func NewSyncLogEntry(syncType JobType, direction SyncDirection, localID, erpID string, status SyncStatus, message string) *SyncLogEntry {
	return &SyncLogEntry{
		ID:        uuid.New(),
		SyncType:  syncType,
		LocalID:   localID,
		ERPID:     erpID,
		Status:    status,
		Direction: direction,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// SyncLogFilter narrows sync log queries.
type SyncLogFilter struct {
	SyncType *JobType
	Status   *SyncStatus
	LocalID  string
	Since    *time.Time
	Limit    int
}

// SyncLogRepository is the append-only log sink.
type SyncLogRepository interface {
	Append(ctx context.Context, entry *SyncLogEntry) error
	List(ctx context.Context, filter SyncLogFilter) ([]SyncLogEntry, error)
	// PruneOlderThan deletes entries created before the cutoff and returns
	// the number removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ---------------------------------------------------------------------------
// Settings Store
// ---------------------------------------------------------------------------

// SettingsStore is the key-value settings contract the sync core uses for
// small operational state (last full sync timestamp and the like).
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
