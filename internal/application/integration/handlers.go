package integration

import (
	"context"
	"strconv"

	"github.com/erp/connector/internal/domain/integration"
)

// HandlerRegistry is the part of the job runner handler wiring depends on.
type HandlerRegistry interface {
	Register(jobType integration.JobType, handler integration.JobHandler)
}

// RegisterHandlers binds the sync services to their job types on the
// runner. Product-sync currently resolves to a stock pull: mapping
// provisioning is housekeeping, so a product edit only needs its stock
// refreshed.
func RegisterHandlers(registry HandlerRegistry, orders *OrderSyncService, stock *StockSyncService, logs *SyncLogService) {
	registry.Register(integration.JobTypeOrderSync, integration.JobHandlerFunc(
		func(ctx context.Context, job *integration.SyncJob) error {
			orderID, err := payloadID(job, "order_id")
			if err != nil {
				return err
			}
			return orders.SyncOrder(ctx, orderID)
		}))

	registry.Register(integration.JobTypeStockPull, integration.JobHandlerFunc(
		func(ctx context.Context, job *integration.SyncJob) error {
			productID, err := payloadID(job, "product_id")
			if err != nil {
				return err
			}
			return stock.PullProductStock(ctx, productID)
		}))

	registry.Register(integration.JobTypeProductSync, integration.JobHandlerFunc(
		func(ctx context.Context, job *integration.SyncJob) error {
			productID, err := payloadID(job, "product_id")
			if err != nil {
				return err
			}
			return stock.PullProductStock(ctx, productID)
		}))

	registry.Register(integration.JobTypeFullStockSync, integration.JobHandlerFunc(
		func(ctx context.Context, job *integration.SyncJob) error {
			_, err := stock.FullSync(ctx)
			if err != nil {
				return err
			}
			// Housekeeping piggybacks on the recurring full sync tick.
			if _, err := logs.Prune(ctx); err != nil {
				return err
			}
			return nil
		}))
}

// payloadID extracts a numeric id from the job payload. A missing or
// malformed id is a data problem, not a transient one.
func payloadID(job *integration.SyncJob, key string) (int64, error) {
	raw, ok := job.Payload[key]
	if !ok {
		return 0, integration.NewValidationError("job " + job.ID.String() + " payload missing " + key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, integration.NewValidationError("job " + job.ID.String() + " payload has malformed " + key)
	}
	return id, nil
}
