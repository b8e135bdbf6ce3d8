package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Sync Status
// ---------------------------------------------------------------------------

// SyncStatus tracks where an entity stands in its sync lifecycle.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// ---------------------------------------------------------------------------
// Order Mapping
// ---------------------------------------------------------------------------

// OrderMapping links a local order to the ERP sales document created for
// it. The unique constraint on LocalOrderID is the idempotency invariant:
// once a document entry is recorded, re-sync never creates a second
// document for the same order.
type OrderMapping struct {
	LocalOrderID int64
	DocEntry     int64
	DocNum       string
	Status       SyncStatus
	Attempts     int
	LastError    string
	SyncedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSynced returns true once an ERP document has been recorded.
func (m *OrderMapping) IsSynced() bool {
	return m != nil && m.DocEntry > 0
}

// OrderMappingRepository persists order mappings with upsert-by-unique-key
// semantics on LocalOrderID.
type OrderMappingRepository interface {
	FindByLocalOrder(ctx context.Context, localOrderID int64) (*OrderMapping, error)
	Upsert(ctx context.Context, mapping *OrderMapping) error
}

// ---------------------------------------------------------------------------
// Product Mapping
// ---------------------------------------------------------------------------

// ProductMapping links a local product to an ERP item code. The pairing is
// bidirectionally unique: one local product maps to exactly one item code
// and vice versa.
type ProductMapping struct {
	LocalProductID int64
	ItemCode       string
	SyncEnabled    bool
	LastSyncedAt   *time.Time
	LastKnownStock decimal.Decimal
	Status         SyncStatus
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductMappingRepository persists product mappings. Provisioning of new
// mappings is a housekeeping concern; stock sync only reads enabled rows
// and writes back sync state.
type ProductMappingRepository interface {
	FindByLocalProduct(ctx context.Context, localProductID int64) (*ProductMapping, error)
	FindByItemCode(ctx context.Context, itemCode string) (*ProductMapping, error)
	ListEnabled(ctx context.Context) ([]ProductMapping, error)
	Upsert(ctx context.Context, mapping *ProductMapping) error
}

// ---------------------------------------------------------------------------
// Customer Mapping
// ---------------------------------------------------------------------------

// CustomerMapping links a local customer to an ERP business partner code.
type CustomerMapping struct {
	LocalCustomerID int64
	Email           string
	CardCode        string
	Status          SyncStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CustomerMappingRepository persists customer mappings. Upsert must be
// atomic on the LocalCustomerID unique key so two concurrent resolutions
// of the same brand-new customer cannot both win; the loser observes the
// stored mapping and reuses it.
type CustomerMappingRepository interface {
	FindByLocalCustomer(ctx context.Context, localCustomerID int64) (*CustomerMapping, error)
	FindByEmail(ctx context.Context, email string) (*CustomerMapping, error)
	Upsert(ctx context.Context, mapping *CustomerMapping) error
}
