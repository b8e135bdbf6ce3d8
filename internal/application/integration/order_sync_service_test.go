package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

type orderSyncFixture struct {
	client    *MockERPClient
	store     *MockStoreGateway
	orders    *MockOrderMappingRepository
	customers *MockCustomerMappingRepository
	syncLog   *MockSyncLogRepository
	service   *OrderSyncService
}

func newOrderSyncFixture() *orderSyncFixture {
	f := &orderSyncFixture{
		client:    new(MockERPClient),
		store:     new(MockStoreGateway),
		orders:    new(MockOrderMappingRepository),
		customers: new(MockCustomerMappingRepository),
		syncLog:   new(MockSyncLogRepository),
	}
	config := DefaultConfig()
	logger := zap.NewNop()
	customerSync := NewCustomerSyncService(config, f.client, f.customers, logger)
	f.service = NewOrderSyncService(config, f.client, f.store, f.orders, customerSync, f.syncLog, logger)
	return f
}

func TestSyncOrder_AlreadySyncedSkipsNetwork(t *testing.T) {
	f := newOrderSyncFixture()
	ctx := context.Background()

	f.orders.On("FindByLocalOrder", ctx, int64(42)).
		Return(&integration.OrderMapping{LocalOrderID: 42, DocEntry: 500, DocNum: "SO-500"}, nil)

	err := f.service.SyncOrder(ctx, 42)

	assert.NoError(t, err)
	f.client.AssertNotCalled(t, "Post")
	f.client.AssertNotCalled(t, "Get")
	f.store.AssertNotCalled(t, "GetOrder")
	f.orders.AssertExpectations(t)
}

func TestSyncOrder_ValidationFailureStaysOffline(t *testing.T) {
	f := newOrderSyncFixture()
	ctx := context.Background()

	order := testOrder()
	order.Lines = nil
	f.orders.On("FindByLocalOrder", ctx, int64(42)).
		Return(nil, integration.ErrMappingNotFound)
	f.store.On("GetOrder", ctx, int64(42)).Return(order, nil)
	f.orders.On("Upsert", ctx, mock.MatchedBy(func(m *integration.OrderMapping) bool {
		return m.Status == integration.SyncStatusFailed && m.Attempts == 1
	})).Return(nil)
	f.store.On("AppendOrderNote", ctx, int64(42), mock.Anything).Return(nil)
	f.syncLog.On("Append", ctx, mock.MatchedBy(func(e *integration.SyncLogEntry) bool {
		return e.Status == integration.SyncStatusFailed
	})).Return(nil)

	err := f.service.SyncOrder(ctx, 42)

	assert.Error(t, err)
	assert.True(t, integration.IsKind(err, integration.ErrorKindValidation))
	f.client.AssertNotCalled(t, "Post")
	f.client.AssertNotCalled(t, "Get")
	f.orders.AssertExpectations(t)
	f.syncLog.AssertExpectations(t)
}

func TestSyncOrder_MissingContactFailsValidation(t *testing.T) {
	f := newOrderSyncFixture()
	ctx := context.Background()

	order := testOrder()
	order.Billing.Email = ""
	order.Billing.Phone = ""
	f.orders.On("FindByLocalOrder", ctx, int64(42)).
		Return(nil, integration.ErrMappingNotFound)
	f.store.On("GetOrder", ctx, int64(42)).Return(order, nil)
	f.orders.On("Upsert", ctx, mock.Anything).Return(nil)
	f.store.On("AppendOrderNote", ctx, int64(42), mock.Anything).Return(nil)
	f.syncLog.On("Append", ctx, mock.Anything).Return(nil)

	err := f.service.SyncOrder(ctx, 42)

	assert.True(t, integration.IsKind(err, integration.ErrorKindValidation))
	f.client.AssertNotCalled(t, "Post")
}

func TestSyncOrder_Success(t *testing.T) {
	f := newOrderSyncFixture()
	ctx := context.Background()

	f.orders.On("FindByLocalOrder", ctx, int64(42)).
		Return(nil, integration.ErrMappingNotFound)
	f.store.On("GetOrder", ctx, int64(42)).Return(testOrder(), nil)
	f.customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(&integration.CustomerMapping{LocalCustomerID: 7, CardCode: "C000007"}, nil)
	f.client.On("Post", ctx, "Orders", mock.MatchedBy(func(p *DocumentPayload) bool {
		return p.CardCode == "C000007" && len(p.DocumentLines) == 2
	})).Return([]byte(`{"DocEntry":1234,"DocNum":9876,"CardCode":"C000007"}`), nil)
	f.orders.On("Upsert", ctx, mock.MatchedBy(func(m *integration.OrderMapping) bool {
		return m.LocalOrderID == 42 &&
			m.DocEntry == 1234 &&
			m.DocNum == "9876" &&
			m.Status == integration.SyncStatusSynced &&
			m.SyncedAt != nil
	})).Return(nil)
	f.store.On("SetOrderERPReference", ctx, int64(42), int64(1234), "9876").Return(nil)
	f.store.On("AppendOrderNote", ctx, int64(42), mock.Anything).Return(nil)
	f.syncLog.On("Append", ctx, mock.MatchedBy(func(e *integration.SyncLogEntry) bool {
		return e.Status == integration.SyncStatusSynced &&
			e.Direction == integration.SyncDirectionPush &&
			e.LocalID == "42" &&
			e.ERPID == "1234"
	})).Return(nil)

	err := f.service.SyncOrder(ctx, 42)

	assert.NoError(t, err)
	f.client.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.syncLog.AssertExpectations(t)
}

func TestSyncOrder_APIErrorRecordsFailure(t *testing.T) {
	f := newOrderSyncFixture()
	ctx := context.Background()

	f.orders.On("FindByLocalOrder", ctx, int64(42)).
		Return(nil, integration.ErrMappingNotFound)
	f.store.On("GetOrder", ctx, int64(42)).Return(testOrder(), nil)
	f.customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(&integration.CustomerMapping{LocalCustomerID: 7, CardCode: "C000007"}, nil)
	f.client.On("Post", ctx, "Orders", mock.Anything).
		Return(nil, integration.NewAPIError(400, "-5002", "item code missing"))
	f.orders.On("Upsert", ctx, mock.MatchedBy(func(m *integration.OrderMapping) bool {
		return m.Status == integration.SyncStatusFailed && m.LastError != ""
	})).Return(nil)
	f.store.On("AppendOrderNote", ctx, int64(42), mock.Anything).Return(nil)
	f.syncLog.On("Append", ctx, mock.MatchedBy(func(e *integration.SyncLogEntry) bool {
		return e.Status == integration.SyncStatusFailed && e.RequestSnapshot != ""
	})).Return(nil)

	err := f.service.SyncOrder(ctx, 42)

	assert.Error(t, err)
	assert.True(t, integration.IsKind(err, integration.ErrorKindAPI))
	f.orders.AssertExpectations(t)
	f.syncLog.AssertExpectations(t)
}
