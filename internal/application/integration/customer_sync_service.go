package integration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/infrastructure/sapb1"
)

// CustomerSyncService resolves the ERP business partner for an order.
// Resolution order: stored mapping, partner lookup by email, then either
// partner creation or the configured walk-in partner.
type CustomerSyncService struct {
	config    Config
	client    ERPClient
	customers integration.CustomerMappingRepository
	mapper    *CustomerMapper
	logger    *zap.Logger
}

// NewCustomerSyncService creates a new CustomerSyncService.
func NewCustomerSyncService(
	config Config,
	client ERPClient,
	customers integration.CustomerMappingRepository,
	logger *zap.Logger,
) *CustomerSyncService {
	return &CustomerSyncService{
		config:    config,
		client:    client,
		customers: customers,
		mapper:    NewCustomerMapper(config),
		logger:    logger,
	}
}

// EnsureCustomer returns the partner code the order's document should be
// booked under, creating the business partner when needed.
func (s *CustomerSyncService) EnsureCustomer(ctx context.Context, order *integration.StoreOrder) (string, error) {
	// A stored mapping wins over everything else.
	if order.CustomerID > 0 {
		mapping, err := s.customers.FindByLocalCustomer(ctx, order.CustomerID)
		if err == nil {
			return mapping.CardCode, nil
		}
		if !errors.Is(err, integration.ErrMappingNotFound) {
			return "", fmt.Errorf("find customer mapping: %w", err)
		}
	}

	// An existing partner with the same email is adopted rather than
	// duplicated. Lookup failures degrade to not-found so a flaky ERP
	// search cannot block order sync.
	if email := order.ContactEmail(); email != "" {
		cardCode, err := s.findPartnerByEmail(ctx, email)
		if err != nil {
			s.logger.Warn("partner email lookup failed, proceeding as not found",
				zap.String("email", email),
				zap.Error(err))
		} else if cardCode != "" {
			s.rememberMapping(ctx, order, cardCode)
			return cardCode, nil
		}
	}

	if order.CustomerID <= 0 || !s.config.AutoCreateCustomers {
		return s.config.DefaultPartnerCode, nil
	}

	return s.createPartner(ctx, order)
}

// findPartnerByEmail searches the ERP for a partner with the given email.
// Returns an empty code when none exists.
func (s *CustomerSyncService) findPartnerByEmail(ctx context.Context, email string) (string, error) {
	query := sapb1.NewQuery().
		Select("CardCode", "CardName", "CardType").
		WhereEquals("EmailAddress", email).
		Limit(1)

	raw, err := s.client.Get(ctx, "BusinessPartners", query.Build())
	if err != nil {
		return "", err
	}

	collection, err := sapb1.ParseCollection(raw)
	if err != nil {
		return "", err
	}
	if len(collection.Items) == 0 {
		return "", nil
	}
	cardCode, _ := collection.Items[0]["CardCode"].(string)
	return cardCode, nil
}

// createPartner creates the business partner and records the mapping.
// When a concurrent resolution created the partner first, the stored
// mapping wins and its code is returned.
func (s *CustomerSyncService) createPartner(ctx context.Context, order *integration.StoreOrder) (string, error) {
	payload := s.mapper.MapPartner(order.CustomerID, order.Billing, order.Shipping)

	if _, err := s.client.Post(ctx, "BusinessPartners", payload); err != nil {
		// A duplicate-key rejection means another worker won the race;
		// its mapping is authoritative.
		if integration.IsKind(err, integration.ErrorKindAPI) {
			if mapping, findErr := s.customers.FindByLocalCustomer(ctx, order.CustomerID); findErr == nil {
				return mapping.CardCode, nil
			}
		}
		return "", fmt.Errorf("create business partner %s: %w", payload.CardCode, err)
	}

	s.logger.Info("created business partner",
		zap.String("card_code", payload.CardCode),
		zap.Int64("customer_id", order.CustomerID))

	s.rememberMapping(ctx, order, payload.CardCode)

	// Re-read so a concurrently stored mapping is honored over ours.
	if mapping, err := s.customers.FindByLocalCustomer(ctx, order.CustomerID); err == nil {
		return mapping.CardCode, nil
	}
	return payload.CardCode, nil
}

// rememberMapping stores the customer-to-partner link. Persistence
// failures are logged, not fatal; the next order re-resolves.
func (s *CustomerSyncService) rememberMapping(ctx context.Context, order *integration.StoreOrder, cardCode string) {
	if order.CustomerID <= 0 {
		return
	}
	mapping := &integration.CustomerMapping{
		LocalCustomerID: order.CustomerID,
		Email:           order.ContactEmail(),
		CardCode:        cardCode,
		Status:          integration.SyncStatusSynced,
	}
	if err := s.customers.Upsert(ctx, mapping); err != nil {
		s.logger.Warn("failed to store customer mapping",
			zap.Int64("customer_id", order.CustomerID),
			zap.String("card_code", cardCode),
			zap.Error(err))
	}
}
