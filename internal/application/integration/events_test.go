package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

func newEventService(scheduler *MockScheduler) *EventService {
	return NewEventService(DefaultConfig(), scheduler, zap.NewNop())
}

func TestOnOrderCreated_EnqueuesOrderSync(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	payload := map[string]string{"order_id": "42"}
	scheduler.On("HasScheduled", ctx, integration.JobTypeOrderSync, payload, GroupOrders).
		Return(false, nil)
	scheduler.On("ScheduleOnce", ctx, mock.MatchedBy(func(j *integration.SyncJob) bool {
		return j.Type == integration.JobTypeOrderSync &&
			j.Payload["order_id"] == "42" &&
			j.MaxRetries == 5
	}), time.Duration(0)).Return(nil)

	err := service.OnOrderCreated(ctx, 42)

	assert.NoError(t, err)
	scheduler.AssertExpectations(t)
}

func TestOnOrderCreated_PendingJobSuppressesDuplicate(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	scheduler.On("HasScheduled", ctx, integration.JobTypeOrderSync, mock.Anything, GroupOrders).
		Return(true, nil)

	err := service.OnOrderCreated(ctx, 42)

	assert.NoError(t, err)
	scheduler.AssertNotCalled(t, "ScheduleOnce")
}

func TestOnOrderCreated_GuardRaceTreatedAsPending(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	scheduler.On("HasScheduled", ctx, integration.JobTypeOrderSync, mock.Anything, GroupOrders).
		Return(false, nil)
	scheduler.On("ScheduleOnce", ctx, mock.Anything, time.Duration(0)).
		Return(integration.ErrDuplicateJob)

	err := service.OnOrderCreated(ctx, 42)

	assert.NoError(t, err)
}

func TestOnOrderStatusChanged_IgnoresNonSyncableStatus(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	assert.NoError(t, service.OnOrderStatusChanged(ctx, 42, "pending"))
	assert.NoError(t, service.OnOrderStatusChanged(ctx, 42, "cancelled"))
	scheduler.AssertNotCalled(t, "HasScheduled")
	scheduler.AssertNotCalled(t, "ScheduleOnce")
}

func TestOnOrderStatusChanged_SyncableStatusEnqueues(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	scheduler.On("HasScheduled", ctx, integration.JobTypeOrderSync, mock.Anything, GroupOrders).
		Return(false, nil)
	scheduler.On("ScheduleOnce", ctx, mock.Anything, time.Duration(0)).Return(nil)

	assert.NoError(t, service.OnOrderStatusChanged(ctx, 42, "processing"))
	scheduler.AssertExpectations(t)
}

func TestOnOrderRefunded_EnqueuesNothing(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)

	assert.NoError(t, service.OnOrderRefunded(context.Background(), 42))
	scheduler.AssertNotCalled(t, "ScheduleOnce")
}

func TestOnStockReduced_EnqueuesStockPull(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	payload := map[string]string{"product_id": "101"}
	scheduler.On("HasScheduled", ctx, integration.JobTypeStockPull, payload, GroupStock).
		Return(false, nil)
	scheduler.On("ScheduleOnce", ctx, mock.MatchedBy(func(j *integration.SyncJob) bool {
		return j.Type == integration.JobTypeStockPull && j.Payload["product_id"] == "101"
	}), time.Duration(0)).Return(nil)

	assert.NoError(t, service.OnStockReduced(ctx, 101))
	scheduler.AssertExpectations(t)
}

func TestOnProductDeleted_CancelsPendingJobs(t *testing.T) {
	scheduler := new(MockScheduler)
	service := newEventService(scheduler)
	ctx := context.Background()

	payload := map[string]string{"product_id": "101"}
	scheduler.On("CancelAll", ctx, integration.JobTypeStockPull, payload, GroupStock).
		Return(1, nil)
	scheduler.On("CancelAll", ctx, integration.JobTypeProductSync, payload, GroupStock).
		Return(0, nil)

	assert.NoError(t, service.OnProductDeleted(ctx, 101))
	scheduler.AssertExpectations(t)
}
