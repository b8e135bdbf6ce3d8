package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/connector/internal/domain/integration"
)

func TestMemoryScheduler_ScheduleOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects duplicate pending jobs", func(t *testing.T) {
		s := NewMemoryScheduler()

		payload := map[string]string{"order_id": "1001"}
		first := integration.NewSyncJob(integration.JobTypeOrderSync, payload, "orders", 5)
		second := integration.NewSyncJob(integration.JobTypeOrderSync, payload, "orders", 5)

		require.NoError(t, s.ScheduleOnce(ctx, first, time.Minute))
		assert.ErrorIs(t, s.ScheduleOnce(ctx, second, time.Minute), integration.ErrDuplicateJob)

		count, err := s.CountPending(ctx, "orders")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("different payloads are not duplicates", func(t *testing.T) {
		s := NewMemoryScheduler()

		first := integration.NewSyncJob(integration.JobTypeOrderSync, map[string]string{"order_id": "1001"}, "orders", 5)
		second := integration.NewSyncJob(integration.JobTypeOrderSync, map[string]string{"order_id": "1002"}, "orders", 5)

		require.NoError(t, s.ScheduleOnce(ctx, first, 0))
		require.NoError(t, s.ScheduleOnce(ctx, second, 0))

		count, err := s.CountPending(ctx, "orders")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("rejects scheduling after close", func(t *testing.T) {
		s := NewMemoryScheduler()
		require.NoError(t, s.Close())

		job := integration.NewSyncJob(integration.JobTypeOrderSync, nil, "orders", 5)
		assert.ErrorIs(t, s.ScheduleOnce(ctx, job, 0), ErrSchedulerClosed)
	})
}

func TestMemoryScheduler_HasScheduled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduler()

	payload := map[string]string{"order_id": "1001"}
	job := integration.NewSyncJob(integration.JobTypeOrderSync, payload, "orders", 5)
	require.NoError(t, s.ScheduleOnce(ctx, job, time.Minute))

	found, err := s.HasScheduled(ctx, integration.JobTypeOrderSync, payload, "orders")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.HasScheduled(ctx, integration.JobTypeStockPull, payload, "orders")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryScheduler_CancelAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduler()

	payload := map[string]string{"item_code": "WIDGET-01"}
	job := integration.NewSyncJob(integration.JobTypeStockPull, payload, "stock", 5)
	require.NoError(t, s.ScheduleOnce(ctx, job, time.Minute))

	removed, err := s.CancelAll(ctx, integration.JobTypeStockPull, payload, "stock")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = s.CancelAll(ctx, integration.JobTypeStockPull, payload, "stock")
	require.NoError(t, err)
	assert.Zero(t, removed)

	found, err := s.HasScheduled(ctx, integration.JobTypeStockPull, payload, "stock")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryScheduler_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil before the job is due", func(t *testing.T) {
		s := NewMemoryScheduler()

		job := integration.NewSyncJob(integration.JobTypeOrderSync, map[string]string{"order_id": "1001"}, "orders", 5)
		require.NoError(t, s.ScheduleOnce(ctx, job, time.Hour))

		claimed, err := s.Claim(ctx)
		require.NoError(t, err)
		assert.Nil(t, claimed)
	})

	t.Run("claims the earliest due job first", func(t *testing.T) {
		s := NewMemoryScheduler()
		base := time.Now()
		s.now = func() time.Time { return base }

		late := integration.NewSyncJob(integration.JobTypeOrderSync, map[string]string{"order_id": "2"}, "orders", 5)
		early := integration.NewSyncJob(integration.JobTypeOrderSync, map[string]string{"order_id": "1"}, "orders", 5)
		require.NoError(t, s.ScheduleOnce(ctx, late, 10*time.Minute))
		require.NoError(t, s.ScheduleOnce(ctx, early, 5*time.Minute))

		s.now = func() time.Time { return base.Add(time.Hour) }

		claimed, err := s.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, early.ID, claimed.ID)

		claimed, err = s.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, late.ID, claimed.ID)

		claimed, err = s.Claim(ctx)
		require.NoError(t, err)
		assert.Nil(t, claimed)
	})

	t.Run("claim releases the dedup key", func(t *testing.T) {
		s := NewMemoryScheduler()

		payload := map[string]string{"order_id": "1001"}
		job := integration.NewSyncJob(integration.JobTypeOrderSync, payload, "orders", 5)
		require.NoError(t, s.ScheduleOnce(ctx, job, 0))

		claimed, err := s.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, claimed)

		// A new submission with the same payload is accepted again.
		next := integration.NewSyncJob(integration.JobTypeOrderSync, payload, "orders", 5)
		assert.NoError(t, s.ScheduleOnce(ctx, next, 0))
	})
}

func TestMemoryScheduler_Reschedule(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduler()
	base := time.Now()
	s.now = func() time.Time { return base }

	payload := map[string]string{"order_id": "1001"}
	job := integration.NewSyncJob(integration.JobTypeOrderSync, payload, "orders", 5)
	require.NoError(t, s.ScheduleOnce(ctx, job, 0))

	claimed, err := s.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	claimed.RecordFailure(assert.AnError)
	require.NoError(t, s.Reschedule(ctx, claimed, claimed.NextBackoff()))

	found, err := s.HasScheduled(ctx, integration.JobTypeOrderSync, payload, "orders")
	require.NoError(t, err)
	assert.True(t, found)

	// Not due until the backoff elapses.
	again, err := s.Claim(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)

	s.now = func() time.Time { return base.Add(time.Hour) }
	again, err = s.Claim(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, 1, again.RetryCount)
}
