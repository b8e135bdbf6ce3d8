package integration

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/erp/connector/internal/domain/integration"
)

// MockERPClient is a mock implementation of ERPClient
type MockERPClient struct {
	mock.Mock
}

func (m *MockERPClient) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	args := m.Called(ctx, endpoint, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockERPClient) Post(ctx context.Context, endpoint string, body any) ([]byte, error) {
	args := m.Called(ctx, endpoint, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockERPClient) Patch(ctx context.Context, endpoint string, body any) ([]byte, error) {
	args := m.Called(ctx, endpoint, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockERPClient) Delete(ctx context.Context, endpoint string) ([]byte, error) {
	args := m.Called(ctx, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockStoreGateway is a mock implementation of StoreGateway
type MockStoreGateway struct {
	mock.Mock
}

func (m *MockStoreGateway) GetOrder(ctx context.Context, orderID int64) (*integration.StoreOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.StoreOrder), args.Error(1)
}

func (m *MockStoreGateway) GetCustomer(ctx context.Context, customerID int64) (*integration.StoreCustomer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.StoreCustomer), args.Error(1)
}

func (m *MockStoreGateway) SetOrderERPReference(ctx context.Context, orderID int64, docEntry int64, docNum string) error {
	args := m.Called(ctx, orderID, docEntry, docNum)
	return args.Error(0)
}

func (m *MockStoreGateway) AppendOrderNote(ctx context.Context, orderID int64, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}

func (m *MockStoreGateway) UpdateProductStock(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

// MockOrderMappingRepository is a mock implementation of OrderMappingRepository
type MockOrderMappingRepository struct {
	mock.Mock
}

func (m *MockOrderMappingRepository) FindByLocalOrder(ctx context.Context, localOrderID int64) (*integration.OrderMapping, error) {
	args := m.Called(ctx, localOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderMapping), args.Error(1)
}

func (m *MockOrderMappingRepository) Upsert(ctx context.Context, mapping *integration.OrderMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

// MockProductMappingRepository is a mock implementation of ProductMappingRepository
type MockProductMappingRepository struct {
	mock.Mock
}

func (m *MockProductMappingRepository) FindByLocalProduct(ctx context.Context, localProductID int64) (*integration.ProductMapping, error) {
	args := m.Called(ctx, localProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) FindByItemCode(ctx context.Context, itemCode string) (*integration.ProductMapping, error) {
	args := m.Called(ctx, itemCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) ListEnabled(ctx context.Context) ([]integration.ProductMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) Upsert(ctx context.Context, mapping *integration.ProductMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

// MockCustomerMappingRepository is a mock implementation of CustomerMappingRepository
type MockCustomerMappingRepository struct {
	mock.Mock
}

func (m *MockCustomerMappingRepository) FindByLocalCustomer(ctx context.Context, localCustomerID int64) (*integration.CustomerMapping, error) {
	args := m.Called(ctx, localCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CustomerMapping), args.Error(1)
}

func (m *MockCustomerMappingRepository) FindByEmail(ctx context.Context, email string) (*integration.CustomerMapping, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CustomerMapping), args.Error(1)
}

func (m *MockCustomerMappingRepository) Upsert(ctx context.Context, mapping *integration.CustomerMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

// MockSyncLogRepository is a mock implementation of SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Append(ctx context.Context, entry *integration.SyncLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) List(ctx context.Context, filter integration.SyncLogFilter) ([]integration.SyncLogEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncLogEntry), args.Error(1)
}

func (m *MockSyncLogRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeadLetterRepository is a mock implementation of DeadLetterRepository
type MockDeadLetterRepository struct {
	mock.Mock
}

func (m *MockDeadLetterRepository) Insert(ctx context.Context, entry *integration.DeadLetterEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDeadLetterRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.DeadLetterEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.DeadLetterEntry), args.Error(1)
}

func (m *MockDeadLetterRepository) ListUnresolved(ctx context.Context, limit int) ([]integration.DeadLetterEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.DeadLetterEntry), args.Error(1)
}

func (m *MockDeadLetterRepository) MarkResolved(ctx context.Context, entry *integration.DeadLetterEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockScheduler is a mock implementation of the Scheduler port
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) ScheduleOnce(ctx context.Context, job *integration.SyncJob, delay time.Duration) error {
	args := m.Called(ctx, job, delay)
	return args.Error(0)
}

func (m *MockScheduler) ScheduleRecurring(ctx context.Context, jobType integration.JobType, payload map[string]string, interval time.Duration, group string) error {
	args := m.Called(ctx, jobType, payload, interval, group)
	return args.Error(0)
}

func (m *MockScheduler) HasScheduled(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) (bool, error) {
	args := m.Called(ctx, jobType, payload, group)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduler) CancelAll(ctx context.Context, jobType integration.JobType, payload map[string]string, group string) (int, error) {
	args := m.Called(ctx, jobType, payload, group)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduler) CountPending(ctx context.Context, group string) (int, error) {
	args := m.Called(ctx, group)
	return args.Int(0), args.Error(1)
}
