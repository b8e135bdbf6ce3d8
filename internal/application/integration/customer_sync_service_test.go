package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

func newCustomerSyncService(client *MockERPClient, customers *MockCustomerMappingRepository) *CustomerSyncService {
	return NewCustomerSyncService(DefaultConfig(), client, customers, zap.NewNop())
}

func TestEnsureCustomer_ReusesStoredMapping(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	service := newCustomerSyncService(client, customers)
	ctx := context.Background()

	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(&integration.CustomerMapping{LocalCustomerID: 7, CardCode: "C000007"}, nil)

	cardCode, err := service.EnsureCustomer(ctx, testOrder())

	assert.NoError(t, err)
	assert.Equal(t, "C000007", cardCode)
	client.AssertNotCalled(t, "Get")
	client.AssertNotCalled(t, "Post")
	customers.AssertExpectations(t)
}

func TestEnsureCustomer_AdoptsPartnerFoundByEmail(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	service := newCustomerSyncService(client, customers)
	ctx := context.Background()

	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(nil, integration.ErrMappingNotFound)
	client.On("Get", ctx, "BusinessPartners", mock.Anything).
		Return([]byte(`{"value":[{"CardCode":"C555000","CardName":"Ada Lovelace"}]}`), nil)
	customers.On("Upsert", ctx, mock.MatchedBy(func(m *integration.CustomerMapping) bool {
		return m.LocalCustomerID == 7 && m.CardCode == "C555000"
	})).Return(nil)

	cardCode, err := service.EnsureCustomer(ctx, testOrder())

	assert.NoError(t, err)
	assert.Equal(t, "C555000", cardCode)
	client.AssertNotCalled(t, "Post")
	customers.AssertExpectations(t)
}

func TestEnsureCustomer_CreatesPartner(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	service := newCustomerSyncService(client, customers)
	ctx := context.Background()

	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(nil, integration.ErrMappingNotFound).Once()
	client.On("Get", ctx, "BusinessPartners", mock.Anything).
		Return([]byte(`{"value":[]}`), nil)
	client.On("Post", ctx, "BusinessPartners", mock.MatchedBy(func(p *PartnerPayload) bool {
		return p.CardCode == "C000007" && p.CardType == "cCustomer"
	})).Return([]byte(`{}`), nil)
	customers.On("Upsert", ctx, mock.Anything).Return(nil)
	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(&integration.CustomerMapping{LocalCustomerID: 7, CardCode: "C000007"}, nil).Once()

	cardCode, err := service.EnsureCustomer(ctx, testOrder())

	assert.NoError(t, err)
	assert.Equal(t, "C000007", cardCode)
	client.AssertExpectations(t)
	customers.AssertExpectations(t)
}

func TestEnsureCustomer_LookupFailureDegradesToCreate(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	service := newCustomerSyncService(client, customers)
	ctx := context.Background()

	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(nil, integration.ErrMappingNotFound)
	client.On("Get", ctx, "BusinessPartners", mock.Anything).
		Return(nil, integration.NewConnectionError("timeout", nil))
	client.On("Post", ctx, "BusinessPartners", mock.Anything).
		Return([]byte(`{}`), nil)
	customers.On("Upsert", ctx, mock.Anything).Return(nil)

	cardCode, err := service.EnsureCustomer(ctx, testOrder())

	assert.NoError(t, err)
	assert.Equal(t, "C000007", cardCode)
	client.AssertExpectations(t)
}

func TestEnsureCustomer_GuestOrderUsesDefaultPartner(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	service := newCustomerSyncService(client, customers)
	ctx := context.Background()

	order := testOrder()
	order.CustomerID = 0
	client.On("Get", ctx, "BusinessPartners", mock.Anything).
		Return([]byte(`{"value":[]}`), nil)

	cardCode, err := service.EnsureCustomer(ctx, order)

	assert.NoError(t, err)
	assert.Equal(t, "C999999", cardCode)
	client.AssertNotCalled(t, "Post")
	customers.AssertNotCalled(t, "Upsert")
}

func TestEnsureCustomer_AutoCreateDisabledUsesDefaultPartner(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	config := DefaultConfig()
	config.AutoCreateCustomers = false
	service := NewCustomerSyncService(config, client, customers, zap.NewNop())
	ctx := context.Background()

	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(nil, integration.ErrMappingNotFound)
	client.On("Get", ctx, "BusinessPartners", mock.Anything).
		Return([]byte(`{"value":[]}`), nil)

	cardCode, err := service.EnsureCustomer(ctx, testOrder())

	assert.NoError(t, err)
	assert.Equal(t, "C999999", cardCode)
	client.AssertNotCalled(t, "Post")
}

func TestEnsureCustomer_CreateRaceAdoptsStoredMapping(t *testing.T) {
	client := new(MockERPClient)
	customers := new(MockCustomerMappingRepository)
	service := newCustomerSyncService(client, customers)
	ctx := context.Background()

	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(nil, integration.ErrMappingNotFound).Once()
	client.On("Get", ctx, "BusinessPartners", mock.Anything).
		Return([]byte(`{"value":[]}`), nil)
	client.On("Post", ctx, "BusinessPartners", mock.Anything).
		Return(nil, integration.NewAPIError(400, "-2035", "business partner already exists"))
	customers.On("FindByLocalCustomer", ctx, int64(7)).
		Return(&integration.CustomerMapping{LocalCustomerID: 7, CardCode: "C000007"}, nil).Once()

	cardCode, err := service.EnsureCustomer(ctx, testOrder())

	assert.NoError(t, err)
	assert.Equal(t, "C000007", cardCode)
	customers.AssertExpectations(t)
}
