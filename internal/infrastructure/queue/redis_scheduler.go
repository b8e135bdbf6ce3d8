package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

const (
	// Redis key layout
	redisKeyPrefix  = "connector:queue:"
	redisDelayedKey = redisKeyPrefix + "delayed"
	redisDedupKey   = redisKeyPrefix + "dedup"
	redisJobPrefix  = redisKeyPrefix + "job:"
	redisGroupKey   = redisKeyPrefix + "group:"

	// Claimed-but-crashed jobs expire with the job record
	redisJobTTL = 7 * 24 * time.Hour
)

// RedisScheduler is a redis-backed Scheduler. Pending jobs live in a sorted
// set scored by their run timestamp; a hash keyed by dedup key enforces the
// duplicate-submission guard across processes.
type RedisScheduler struct {
	client *redis.Client
	logger *zap.Logger

	mu      sync.Mutex
	tickers []*recurringTicker
	closed  bool
}

// NewRedisScheduler creates a new RedisScheduler.
func NewRedisScheduler(client *redis.Client, logger *zap.Logger) *RedisScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisScheduler{client: client, logger: logger}
}

// redisJob is the wire form of a sync job in redis.
type redisJob struct {
	ID          uuid.UUID           `json:"id"`
	Type        integration.JobType `json:"type"`
	Payload     map[string]string   `json:"payload"`
	Group       string              `json:"group"`
	RetryCount  int                 `json:"retry_count"`
	MaxRetries  int                 `json:"max_retries"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	EnqueuedAt  time.Time           `json:"enqueued_at"`
	LastError   string              `json:"last_error,omitempty"`
}

func toRedisJob(job *integration.SyncJob) *redisJob {
	return &redisJob{
		ID:          job.ID,
		Type:        job.Type,
		Payload:     job.Payload,
		Group:       job.Group,
		RetryCount:  job.RetryCount,
		MaxRetries:  job.MaxRetries,
		ScheduledAt: job.ScheduledAt,
		EnqueuedAt:  job.EnqueuedAt,
		LastError:   job.LastError,
	}
}

func (r *redisJob) toDomain() *integration.SyncJob {
	return &integration.SyncJob{
		ID:          r.ID,
		Type:        r.Type,
		Payload:     r.Payload,
		Group:       r.Group,
		RetryCount:  r.RetryCount,
		MaxRetries:  r.MaxRetries,
		ScheduledAt: r.ScheduledAt,
		EnqueuedAt:  r.EnqueuedAt,
		LastError:   r.LastError,
	}
}

func jobKey(id uuid.UUID) string {
	return redisJobPrefix + id.String()
}

// parseMember converts a delayed-set member back into a job id. Members are
// written by store as the job UUID; anything else is junk.
func parseMember(member string) (uuid.UUID, bool) {
	id, err := uuid.Parse(member)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func groupKey(group string) string {
	return redisGroupKey + group
}

// ScheduleOnce enqueues a job to run once after the given delay. Returns
// ErrDuplicateJob when a pending job with the same dedup key exists.
func (s *RedisScheduler) ScheduleOnce(ctx context.Context, job *integration.SyncJob, delay time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.mu.Unlock()

	dedup := job.DedupKey()
	claimed, err := s.client.HSetNX(ctx, redisDedupKey, dedup, job.ID.String()).Result()
	if err != nil {
		return fmt.Errorf("queue: dedup check failed: %w", err)
	}
	if !claimed {
		return integration.ErrDuplicateJob
	}

	runAt := time.Now().Add(delay)
	job.ScheduledAt = runAt
	if err := s.store(ctx, job, runAt); err != nil {
		// Roll back the dedup claim so the job can be resubmitted.
		s.client.HDel(context.WithoutCancel(ctx), redisDedupKey, dedup)
		return err
	}
	return nil
}

// store writes the job record and registers it in the delayed set and its
// group set.
func (s *RedisScheduler) store(ctx context.Context, job *integration.SyncJob, runAt time.Time) error {
	data, err := json.Marshal(toRedisJob(job))
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, jobKey(job.ID), data, redisJobTTL)
	pipe.ZAdd(ctx, redisDelayedKey, redis.Z{Score: float64(runAt.Unix()), Member: job.ID.String()})
	if job.Group != "" {
		pipe.SAdd(ctx, groupKey(job.Group), job.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue: enqueue job: %w", err)
	}
	return nil
}

// ScheduleRecurring submits a fresh job every interval. Ticks that collide
// with a still-pending previous run are dropped by the dedup guard.
func (s *RedisScheduler) ScheduleRecurring(ctx context.Context, jobType integration.JobType, payload map[string]string, interval time.Duration, group string) error {
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
				err := s.ScheduleOnce(context.Background(), job, 0)
				if err != nil && !errors.Is(err, integration.ErrDuplicateJob) {
					s.logger.Warn("recurring job submission failed",
						zap.String("job_type", string(jobType)),
						zap.Error(err),
					)
				}
			}
		}
	}()
	return nil
}

// HasScheduled reports whether a pending job matches the type/payload.
func (s *RedisScheduler) HasScheduled(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) (bool, error) {
	exists, err := s.client.HExists(ctx, redisDedupKey, integration.DedupKey(jobType, payload)).Result()
	if err != nil {
		return false, fmt.Errorf("queue: dedup lookup failed: %w", err)
	}
	return exists, nil
}

// CancelAll removes the pending job matching the type/payload. The dedup
// guard means at most one pending job can match.
func (s *RedisScheduler) CancelAll(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) (int, error) {
	dedup := integration.DedupKey(jobType, payload)
	id, err := s.client.HGet(ctx, redisDedupKey, dedup).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("queue: dedup lookup failed: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, redisDelayedKey, id)
	pipe.Del(ctx, redisJobPrefix+id)
	pipe.HDel(ctx, redisDedupKey, dedup)
	if group != "" {
		pipe.SRem(ctx, groupKey(group), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("queue: cancel job: %w", err)
	}
	return 1, nil
}

// CountPending returns the number of pending jobs in a group. An empty
// group counts everything.
func (s *RedisScheduler) CountPending(ctx context.Context, group string) (int, error) {
	var count int64
	var err error
	if group == "" {
		count, err = s.client.ZCard(ctx, redisDelayedKey).Result()
	} else {
		count, err = s.client.SCard(ctx, groupKey(group)).Result()
	}
	if err != nil {
		return 0, fmt.Errorf("queue: count pending: %w", err)
	}
	return int(count), nil
}

// Claim removes and returns the earliest due job, or nil when nothing is
// due. ZRem arbitrates between competing workers: only the one whose remove
// reports a hit owns the job.
func (s *RedisScheduler) Claim(ctx context.Context) (*integration.SyncJob, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	ids, err := s.client.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{
		Min: "-inf", Max: now, Offset: 0, Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: scan due jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	id := ids[0]
	removed, err := s.client.ZRem(ctx, redisDelayedKey, id).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: claim job: %w", err)
	}
	if removed == 0 {
		// Another worker won the claim; let the next poll try again.
		return nil, nil
	}

	jobID, ok := parseMember(id)
	if !ok {
		// The malformed member has already been removed from the delayed
		// set; skip it rather than crash the worker.
		s.logger.Warn("discarding malformed job id in delayed set", zap.String("member", id))
		return nil, nil
	}

	data, err := s.client.Get(ctx, jobKey(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Warn("claimed job record missing", zap.String("job_id", id))
			return nil, nil
		}
		return nil, fmt.Errorf("queue: load job %s: %w", id, err)
	}

	var rj redisJob
	if err := json.Unmarshal([]byte(data), &rj); err != nil {
		return nil, fmt.Errorf("queue: unmarshal job %s: %w", id, err)
	}
	job := rj.toDomain()

	pipe := s.client.Pipeline()
	pipe.Del(ctx, jobKey(job.ID))
	pipe.HDel(ctx, redisDedupKey, job.DedupKey())
	if job.Group != "" {
		pipe.SRem(ctx, groupKey(job.Group), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("claimed job cleanup failed", zap.String("job_id", id), zap.Error(err))
	}
	return job, nil
}

// Reschedule re-enqueues a claimed job after the given delay, re-arming its
// dedup key.
func (s *RedisScheduler) Reschedule(ctx context.Context, job *integration.SyncJob, delay time.Duration) error {
	runAt := time.Now().Add(delay)
	job.ScheduledAt = runAt
	if err := s.client.HSet(ctx, redisDedupKey, job.DedupKey(), job.ID.String()).Err(); err != nil {
		return fmt.Errorf("queue: re-arm dedup key: %w", err)
	}
	return s.store(ctx, job, runAt)
}

// Close stops recurring tickers and rejects further scheduling.
func (s *RedisScheduler) Close() error {
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

// Ensure RedisScheduler implements the scheduler port and the job source
var (
	_ integration.Scheduler = (*RedisScheduler)(nil)
	_ Source                = (*RedisScheduler)(nil)
)
