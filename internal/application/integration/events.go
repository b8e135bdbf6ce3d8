package integration

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

// Job groups used for pending counts and cancellation.
const (
	GroupOrders = "orders"
	GroupStock  = "stock"
)

// syncableOrderStatuses are the storefront statuses that trigger a push.
// Anything else (drafts, pending payment, cancellations) stays local.
var syncableOrderStatuses = map[string]bool{
	"processing": true,
	"completed":  true,
}

// EventService is the storefront-facing event intake. Each handler
// enqueues at most one job and never blocks on ERP I/O; the duplicate
// guard collapses repeated events for the same entity into one pending
// job.
type EventService struct {
	config    Config
	scheduler integration.Scheduler
	logger    *zap.Logger
}

// NewEventService creates a new EventService.
func NewEventService(config Config, scheduler integration.Scheduler, logger *zap.Logger) *EventService {
	return &EventService{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// OnOrderCreated enqueues a sync for a newly placed order.
func (s *EventService) OnOrderCreated(ctx context.Context, orderID int64) error {
	return s.enqueue(ctx, integration.JobTypeOrderSync, orderPayload(orderID), GroupOrders)
}

// OnOrderStatusChanged enqueues a sync when an order moves into a
// syncable status. Other transitions enqueue nothing.
func (s *EventService) OnOrderStatusChanged(ctx context.Context, orderID int64, status string) error {
	if !syncableOrderStatuses[status] {
		s.logger.Debug("order status not syncable, ignoring",
			zap.Int64("order_id", orderID),
			zap.String("status", status))
		return nil
	}
	return s.enqueue(ctx, integration.JobTypeOrderSync, orderPayload(orderID), GroupOrders)
}

// OnOrderRefunded records the refund without enqueueing work. Credit
// documents are an operator decision, not an automatic push.
func (s *EventService) OnOrderRefunded(ctx context.Context, orderID int64) error {
	s.logger.Info("order refunded, no automatic ERP action",
		zap.Int64("order_id", orderID))
	return nil
}

// OnStockReduced enqueues a stock pull so the storefront converges on the
// ERP quantity after a local sale.
func (s *EventService) OnStockReduced(ctx context.Context, productID int64) error {
	return s.enqueue(ctx, integration.JobTypeStockPull, productPayload(productID), GroupStock)
}

// OnProductSaved enqueues a product sync for an edited product.
func (s *EventService) OnProductSaved(ctx context.Context, productID int64) error {
	return s.enqueue(ctx, integration.JobTypeProductSync, productPayload(productID), GroupStock)
}

// OnProductDeleted cancels any pending work for the deleted product.
// In-flight executions run to completion.
func (s *EventService) OnProductDeleted(ctx context.Context, productID int64) error {
	payload := productPayload(productID)
	removed := 0
	for _, jobType := range []integration.JobType{integration.JobTypeStockPull, integration.JobTypeProductSync} {
		n, err := s.scheduler.CancelAll(ctx, jobType, payload, GroupStock)
		if err != nil {
			return err
		}
		removed += n
	}
	if removed > 0 {
		s.logger.Info("cancelled pending jobs for deleted product",
			zap.Int64("product_id", productID),
			zap.Int("removed", removed))
	}
	return nil
}

// enqueue schedules one job unless an equivalent one is already pending.
func (s *EventService) enqueue(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) error {
	pending, err := s.scheduler.HasScheduled(ctx, jobType, payload, group)
	if err != nil {
		return err
	}
	if pending {
		s.logger.Debug("job already pending, skipping",
			zap.String("job_type", string(jobType)))
		return nil
	}

	job := integration.NewSyncJob(jobType, payload, group, s.config.MaxJobAttempts)
	err = s.scheduler.ScheduleOnce(ctx, job, 0)
	if errors.Is(err, integration.ErrDuplicateJob) {
		// Lost the guard race to a concurrent event; the pending job covers us.
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Debug("job enqueued",
		zap.String("job_type", string(jobType)),
		zap.String("job_id", job.ID.String()))
	return nil
}

func orderPayload(orderID int64) map[string]string {
	return map[string]string{"order_id": strconv.FormatInt(orderID, 10)}
}

func productPayload(productID int64) map[string]string {
	return map[string]string{"product_id": strconv.FormatInt(productID, 10)}
}
