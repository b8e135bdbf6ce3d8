package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

// DeadLetterService exposes the operator surface over parked jobs: list
// what failed, then either resubmit with a fresh retry budget or discard.
type DeadLetterService struct {
	config      Config
	deadLetters integration.DeadLetterRepository
	scheduler   integration.Scheduler
	logger      *zap.Logger
}

// NewDeadLetterService creates a new DeadLetterService.
func NewDeadLetterService(
	config Config,
	deadLetters integration.DeadLetterRepository,
	scheduler integration.Scheduler,
	logger *zap.Logger,
) *DeadLetterService {
	return &DeadLetterService{
		config:      config,
		deadLetters: deadLetters,
		scheduler:   scheduler,
		logger:      logger,
	}
}

// ListUnresolved returns unresolved entries, oldest first.
func (s *DeadLetterService) ListUnresolved(ctx context.Context, limit int) ([]integration.DeadLetterEntry, error) {
	return s.deadLetters.ListUnresolved(ctx, limit)
}

// Resolve closes a dead letter entry. A retry resolution rebuilds the job
// from the payload snapshot with the retry count reset to zero and
// re-enqueues it; a discard only marks the entry.
func (s *DeadLetterService) Resolve(ctx context.Context, id uuid.UUID, resolution integration.DeadLetterResolution) error {
	entry, err := s.deadLetters.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := entry.Resolve(resolution); err != nil {
		return err
	}
	if err := s.deadLetters.MarkResolved(ctx, entry); err != nil {
		return fmt.Errorf("mark dead letter %s resolved: %w", id, err)
	}

	if resolution == integration.DeadLetterResolutionRetry {
		job := entry.ToJob(s.config.MaxJobAttempts)
		err := s.scheduler.ScheduleOnce(ctx, job, 0)
		if err != nil && !errors.Is(err, integration.ErrDuplicateJob) {
			return fmt.Errorf("re-enqueue dead letter %s: %w", id, err)
		}
	}

	s.logger.Info("dead letter resolved",
		zap.String("id", id.String()),
		zap.String("job_type", string(entry.JobType)),
		zap.String("resolution", string(resolution)))
	return nil
}

// ---------------------------------------------------------------------------
// Sync Log
// ---------------------------------------------------------------------------

// SyncLogService exposes the audit trail query surface and the age-based
// retention prune.
type SyncLogService struct {
	config  Config
	syncLog integration.SyncLogRepository
	logger  *zap.Logger
}

// NewSyncLogService creates a new SyncLogService.
func NewSyncLogService(config Config, syncLog integration.SyncLogRepository, logger *zap.Logger) *SyncLogService {
	return &SyncLogService{
		config:  config,
		syncLog: syncLog,
		logger:  logger,
	}
}

// List returns log entries matching the filter, newest first.
func (s *SyncLogService) List(ctx context.Context, filter integration.SyncLogFilter) ([]integration.SyncLogEntry, error) {
	return s.syncLog.List(ctx, filter)
}

// Prune deletes entries older than the configured retention and returns
// the number removed.
func (s *SyncLogService) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.config.LogRetention)
	removed, err := s.syncLog.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sync log: %w", err)
	}
	if removed > 0 {
		s.logger.Info("pruned sync log entries",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff))
	}
	return removed, nil
}
