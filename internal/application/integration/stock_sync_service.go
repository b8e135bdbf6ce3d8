package integration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/sapb1"
)

// stockSelectFields is the projection every stock query asks for.
var stockSelectFields = []string{"ItemCode", "QuantityOnStock", "ItemWarehouseInfoCollection"}

// SettingLastFullSync is the settings key holding the completion time of
// the most recent full stock sync, as RFC 3339.
const SettingLastFullSync = "stock.last_full_sync_at"

// StockSyncReport summarizes one full stock sync run.
type StockSyncReport struct {
	Synced  int
	Failed  int
	Skipped int
}

// StockSyncService pulls item stock from the ERP into the storefront.
// Writes are suppressed when the change stays within the configured
// epsilon, so rounding noise never churns the storefront.
type StockSyncService struct {
	config   Config
	client   ERPClient
	store    integration.StoreGateway
	products integration.ProductMappingRepository
	syncLog  integration.SyncLogRepository
	settings integration.SettingsStore
	logger   *zap.Logger
}

// NewStockSyncService creates a new StockSyncService.
func NewStockSyncService(
	config Config,
	client ERPClient,
	store integration.StoreGateway,
	products integration.ProductMappingRepository,
	syncLog integration.SyncLogRepository,
	settings integration.SettingsStore,
	logger *zap.Logger,
) *StockSyncService {
	return &StockSyncService{
		config:   config,
		client:   client,
		store:    store,
		products: products,
		syncLog:  syncLog,
		settings: settings,
		logger:   logger,
	}
}

// PullProductStock refreshes the stock of a single mapped product.
func (s *StockSyncService) PullProductStock(ctx context.Context, productID int64) error {
	mapping, err := s.products.FindByLocalProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("find product mapping for product %d: %w", productID, err)
	}
	if !mapping.SyncEnabled {
		s.logger.Debug("stock sync disabled for product, skipping",
			zap.Int64("product_id", productID),
			zap.String("item_code", mapping.ItemCode))
		return nil
	}

	query := sapb1.NewQuery().Select(stockSelectFields...)
	raw, err := s.client.Get(ctx, sapb1.EntityByStringKey("Items", mapping.ItemCode), query.Build())
	if err != nil {
		s.recordProductFailure(ctx, mapping, err)
		return fmt.Errorf("fetch stock for item %s: %w", mapping.ItemCode, err)
	}

	stock, err := sapb1.ParseItemStock(raw)
	if err != nil {
		s.recordProductFailure(ctx, mapping, err)
		return fmt.Errorf("parse stock for item %s: %w", mapping.ItemCode, err)
	}

	if err := s.applyStock(ctx, mapping, stock); err != nil {
		return err
	}
	return nil
}

// FullSync refreshes every enabled product mapping, querying the ERP in
// batches of the configured size. A failed batch query fails every
// product in its batch; the remaining batches still run.
func (s *StockSyncService) FullSync(ctx context.Context) (*StockSyncReport, error) {
	mappings, err := s.products.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled product mappings: %w", err)
	}

	report := &StockSyncReport{}
	for start := 0; start < len(mappings); start += s.config.StockBatchSize {
		end := start + s.config.StockBatchSize
		if end > len(mappings) {
			end = len(mappings)
		}
		s.syncBatch(ctx, mappings[start:end], report)

		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	s.logger.Info("full stock sync finished",
		zap.Int("total", len(mappings)),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))

	// The watermark is informational; a failed write must not fail the run.
	if s.settings != nil {
		if err := s.settings.Set(ctx, SettingLastFullSync, time.Now().Format(time.RFC3339)); err != nil {
			s.logger.Warn("failed to record full sync watermark", zap.Error(err))
		}
	}

	return report, nil
}

// syncBatch runs one batched stock query and applies the results.
func (s *StockSyncService) syncBatch(ctx context.Context, batch []integration.ProductMapping, report *StockSyncReport) {
	codes := make([]string, 0, len(batch))
	for _, m := range batch {
		codes = append(codes, m.ItemCode)
	}

	query := sapb1.NewQuery().
		Select(stockSelectFields...).
		WhereIn("ItemCode", codes)

	raw, err := s.client.Get(ctx, "Items", query.Build())
	if err != nil {
		s.logger.Error("batch stock query failed",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		report.Failed += len(batch)
		return
	}

	collection, err := sapb1.ParseCollection(raw)
	if err != nil {
		s.logger.Error("batch stock response unreadable",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		report.Failed += len(batch)
		return
	}

	byCode := make(map[string]*integration.ItemStock, len(collection.Items))
	for _, entity := range collection.Items {
		stock := sapb1.ItemStockFromEntity(entity)
		if stock.ItemCode != "" {
			byCode[stock.ItemCode] = stock
		}
	}

	for i := range batch {
		mapping := batch[i]
		stock, ok := byCode[mapping.ItemCode]
		if !ok {
			s.logger.Warn("item missing from ERP, skipping",
				zap.Int64("product_id", mapping.LocalProductID),
				zap.String("item_code", mapping.ItemCode))
			report.Skipped++
			continue
		}
		if err := s.applyStock(ctx, &mapping, stock); err != nil {
			report.Failed++
			continue
		}
		report.Synced++
	}
}

// applyStock writes the pulled quantity to the storefront when it moved
// beyond epsilon and updates the mapping's sync state either way.
func (s *StockSyncService) applyStock(ctx context.Context, mapping *integration.ProductMapping, stock *integration.ItemStock) error {
	changed := stock.Total.Sub(mapping.LastKnownStock).Abs().GreaterThan(s.config.StockEpsilon)

	if changed {
		if err := s.store.UpdateProductStock(ctx, mapping.LocalProductID, stock.Total); err != nil {
			s.recordProductFailure(ctx, mapping, err)
			return fmt.Errorf("update stock for product %d: %w", mapping.LocalProductID, err)
		}
	}

	now := time.Now()
	mapping.LastKnownStock = stock.Total
	mapping.LastSyncedAt = &now
	mapping.Status = integration.SyncStatusSynced
	mapping.LastError = ""
	if err := s.products.Upsert(ctx, mapping); err != nil {
		return fmt.Errorf("store product mapping for product %d: %w", mapping.LocalProductID, err)
	}

	if changed {
		s.appendLog(ctx, mapping, integration.SyncStatusSynced,
			fmt.Sprintf("stock updated to %s", stock.Total.String()))
		s.logger.Debug("stock updated",
			zap.Int64("product_id", mapping.LocalProductID),
			zap.String("item_code", mapping.ItemCode),
			zap.String("quantity", stock.Total.String()))
	}
	return nil
}

// recordProductFailure marks the mapping failed. Best effort.
func (s *StockSyncService) recordProductFailure(ctx context.Context, mapping *integration.ProductMapping, cause error) {
	mapping.Status = integration.SyncStatusFailed
	mapping.LastError = cause.Error()
	if err := s.products.Upsert(ctx, mapping); err != nil {
		s.logger.Warn("failed to store failed product mapping",
			zap.Int64("product_id", mapping.LocalProductID),
			zap.Error(err))
	}
	s.appendLog(ctx, mapping, integration.SyncStatusFailed, cause.Error())
}

func (s *StockSyncService) appendLog(ctx context.Context, mapping *integration.ProductMapping, status integration.SyncStatus, message string) {
	entry := integration.NewSyncLogEntry(
		integration.JobTypeStockPull,
		integration.SyncDirectionPull,
		strconv.FormatInt(mapping.LocalProductID, 10),
		mapping.ItemCode,
		status,
		message,
	)
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append sync log entry",
			zap.Int64("product_id", mapping.LocalProductID),
			zap.Error(err))
	}
}
