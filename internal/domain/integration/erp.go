package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ERP Value Objects
// ---------------------------------------------------------------------------
// Normalized views of ERP payloads with transport metadata stripped.
// Produced by the response normalizer, never sent back over the wire.

// WarehouseStock is the per-warehouse stock breakdown of one item.
type WarehouseStock struct {
	WarehouseCode string
	InStock       decimal.Decimal
	Committed     decimal.Decimal
	// Available is always InStock - Committed.
	Available decimal.Decimal
}

// ItemStock is the normalized stock position of one ERP item.
type ItemStock struct {
	ItemCode    string
	Total       decimal.Decimal
	ByWarehouse map[string]WarehouseStock
}

// ERPDocument is the normalized view of an ERP sales document.
type ERPDocument struct {
	DocEntry     int64
	DocNum       string
	CardCode     string
	DocDate      *time.Time
	DocDueDate   *time.Time
	DocTotal     decimal.Decimal
	NumAtCard    string
	Comments     string
	Cancelled    bool
	DocumentLine []ERPDocumentLine
}

// ERPDocumentLine is one line of an ERP sales document.
type ERPDocumentLine struct {
	LineNum       int
	ItemCode      string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	DiscountPct   decimal.Decimal
	WarehouseCode string
}

// ERPBusinessPartner is the normalized view of an ERP business partner.
type ERPBusinessPartner struct {
	CardCode     string
	CardName     string
	CardType     string
	EmailAddress string
	Phone        string
	Valid        bool
	Frozen       bool
}
