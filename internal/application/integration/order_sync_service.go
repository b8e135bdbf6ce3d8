package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/sapb1"
)

// OrderSyncService pushes storefront orders into the ERP as sales
// documents. The order mapping table is the idempotency guard: an order
// with a recorded document entry is never pushed twice.
type OrderSyncService struct {
	config    Config
	client    ERPClient
	store     integration.StoreGateway
	orders    integration.OrderMappingRepository
	customers *CustomerSyncService
	syncLog   integration.SyncLogRepository
	mapper    *OrderMapper
	logger    *zap.Logger
}

// NewOrderSyncService creates a new OrderSyncService.
func NewOrderSyncService(
	config Config,
	client ERPClient,
	store integration.StoreGateway,
	orders integration.OrderMappingRepository,
	customers *CustomerSyncService,
	syncLog integration.SyncLogRepository,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		config:    config,
		client:    client,
		store:     store,
		orders:    orders,
		customers: customers,
		syncLog:   syncLog,
		mapper:    NewOrderMapper(config),
		logger:    logger,
	}
}

// SyncOrder pushes one order to the ERP. Already-synced orders return
// immediately without touching the network.
func (s *OrderSyncService) SyncOrder(ctx context.Context, orderID int64) error {
	mapping, err := s.orders.FindByLocalOrder(ctx, orderID)
	if err != nil && !errors.Is(err, integration.ErrMappingNotFound) {
		return fmt.Errorf("find order mapping: %w", err)
	}
	if mapping.IsSynced() {
		s.logger.Debug("order already synced, skipping",
			zap.Int64("order_id", orderID),
			zap.Int64("doc_entry", mapping.DocEntry))
		return nil
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}

	if err := validateOrder(order); err != nil {
		s.recordFailure(ctx, order, mapping, "", err)
		return err
	}

	cardCode, err := s.customers.EnsureCustomer(ctx, order)
	if err != nil {
		s.recordFailure(ctx, order, mapping, "", err)
		return fmt.Errorf("resolve partner for order %d: %w", orderID, err)
	}

	payload := s.mapper.MapOrder(order, cardCode)
	requestSnapshot, _ := json.Marshal(payload)

	raw, err := s.client.Post(ctx, "Orders", payload)
	if err != nil {
		s.recordFailure(ctx, order, mapping, string(requestSnapshot), err)
		return fmt.Errorf("create sales order for order %d: %w", orderID, err)
	}

	doc, err := sapb1.ParseOrder(raw)
	if err != nil {
		s.recordFailure(ctx, order, mapping, string(requestSnapshot), err)
		return fmt.Errorf("parse sales order response for order %d: %w", orderID, err)
	}

	now := time.Now()
	synced := &integration.OrderMapping{
		LocalOrderID: orderID,
		DocEntry:     doc.DocEntry,
		DocNum:       doc.DocNum,
		Status:       integration.SyncStatusSynced,
		Attempts:     attemptsAfter(mapping),
		SyncedAt:     &now,
	}
	if err := s.orders.Upsert(ctx, synced); err != nil {
		return fmt.Errorf("store order mapping for order %d: %w", orderID, err)
	}

	// The document exists in the ERP from here on; write-back problems on
	// the storefront side are logged, not fatal.
	if err := s.store.SetOrderERPReference(ctx, orderID, doc.DocEntry, doc.DocNum); err != nil {
		s.logger.Warn("failed to write ERP reference to order",
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}
	note := fmt.Sprintf("Synced to ERP: document %s (entry %d)", doc.DocNum, doc.DocEntry)
	if err := s.store.AppendOrderNote(ctx, orderID, note); err != nil {
		s.logger.Warn("failed to append order note",
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}

	s.appendLog(ctx, order, integration.SyncStatusSynced, "sales order created",
		string(requestSnapshot), string(raw), strconv.FormatInt(doc.DocEntry, 10))

	s.logger.Info("order synced",
		zap.Int64("order_id", orderID),
		zap.Int64("doc_entry", doc.DocEntry),
		zap.String("doc_num", doc.DocNum),
		zap.String("card_code", cardCode))

	return nil
}

// validateOrder runs the pre-flight checks that must hold before anything
// goes over the wire.
func validateOrder(order *integration.StoreOrder) error {
	if len(order.Lines) == 0 {
		return integration.NewValidationError(fmt.Sprintf("order %d has no line items", order.ID))
	}
	if order.ContactEmail() == "" && order.ContactPhone() == "" {
		return integration.NewValidationError(fmt.Sprintf("order %d has no contact email or phone", order.ID))
	}
	for i, line := range order.Lines {
		if line.ProductID <= 0 {
			return integration.NewValidationError(fmt.Sprintf("order %d line %d has no product reference", order.ID, i))
		}
		if line.SKU == "" {
			return integration.NewValidationError(fmt.Sprintf("order %d line %d has no SKU", order.ID, i))
		}
	}
	return nil
}

// recordFailure updates the mapping, audit log and order note after a
// failed attempt. Best effort; the original error is what propagates.
func (s *OrderSyncService) recordFailure(ctx context.Context, order *integration.StoreOrder, previous *integration.OrderMapping, requestSnapshot string, cause error) {
	failed := &integration.OrderMapping{
		LocalOrderID: order.ID,
		Status:       integration.SyncStatusFailed,
		Attempts:     attemptsAfter(previous),
		LastError:    cause.Error(),
	}
	if previous != nil {
		failed.DocEntry = previous.DocEntry
		failed.DocNum = previous.DocNum
		failed.SyncedAt = previous.SyncedAt
	}
	if err := s.orders.Upsert(ctx, failed); err != nil {
		s.logger.Warn("failed to store failed order mapping",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}

	note := "ERP sync failed: " + cause.Error()
	if err := s.store.AppendOrderNote(ctx, order.ID, note); err != nil {
		s.logger.Warn("failed to append order note",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}

	s.appendLog(ctx, order, integration.SyncStatusFailed, cause.Error(), requestSnapshot, "", "")
}

func (s *OrderSyncService) appendLog(ctx context.Context, order *integration.StoreOrder, status integration.SyncStatus, message, requestSnapshot, responseSnapshot, erpID string) {
	entry := integration.NewSyncLogEntry(
		integration.JobTypeOrderSync,
		integration.SyncDirectionPush,
		strconv.FormatInt(order.ID, 10),
		erpID,
		status,
		message,
	)
	entry.RequestSnapshot = requestSnapshot
	entry.ResponseSnapshot = responseSnapshot
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append sync log entry",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

func attemptsAfter(mapping *integration.OrderMapping) int {
	if mapping == nil {
		return 1
	}
	return mapping.Attempts + 1
}
