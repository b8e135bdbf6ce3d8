package integration

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erp/connector/internal/domain/integration"
)

// erpDateLayout is the date-only rendering the Service Layer accepts
const erpDateLayout = "2006-01-02"

// paymentMethodCodes maps storefront payment method slugs onto Service
// Layer payment means. Unmapped methods yield no code and the field is
// omitted from the payload.
var paymentMethodCodes = map[string]string{
	"bacs":   "IncomingBankTransfer",
	"cheque": "IncomingCheck",
	"cod":    "IncomingCash",
	"card":   "IncomingCard",
	"stripe": "IncomingCard",
	"paypal": "IncomingCard",
}

// DocumentPayload is the ERP-shaped sales document body.
type DocumentPayload struct {
	CardCode      string                `json:"CardCode"`
	DocDate       string                `json:"DocDate"`
	DocDueDate    string                `json:"DocDueDate"`
	NumAtCard     string                `json:"NumAtCard"`
	Comments      string                `json:"Comments,omitempty"`
	ShipToCode    string                `json:"ShipToCode,omitempty"`
	PaymentMethod string                `json:"PaymentMethod,omitempty"`
	DocumentLines []DocumentLinePayload `json:"DocumentLines"`
}

// DocumentLinePayload is one line of a sales document body.
type DocumentLinePayload struct {
	ItemCode        string          `json:"ItemCode"`
	Quantity        decimal.Decimal `json:"Quantity"`
	UnitPrice       decimal.Decimal `json:"UnitPrice"`
	DiscountPercent decimal.Decimal `json:"DiscountPercent"`
	WarehouseCode   string          `json:"WarehouseCode,omitempty"`
	TaxCode         string          `json:"TaxCode,omitempty"`
	FreeText        string          `json:"FreeText,omitempty"`
}

// OrderMapper transforms storefront orders into ERP document payloads.
// Pure transformation, no transport.
type OrderMapper struct {
	config Config
}

// NewOrderMapper creates a new OrderMapper.
func NewOrderMapper(config Config) *OrderMapper {
	return &OrderMapper{config: config}
}

// MapOrder builds the document payload for an order under the given
// partner code. The due date is the order date plus the configured offset;
// a shipping line is appended when the order carries a shipping total.
func (m *OrderMapper) MapOrder(order *integration.StoreOrder, cardCode string) *DocumentPayload {
	doc := &DocumentPayload{
		CardCode:      cardCode,
		DocDate:       order.DateCreated.Format(erpDateLayout),
		DocDueDate:    order.DateCreated.Add(m.config.DueDateOffset).Format(erpDateLayout),
		NumAtCard:     order.Number,
		Comments:      m.buildComments(order),
		PaymentMethod: paymentMethodCodes[strings.ToLower(order.PaymentMethod)],
		DocumentLines: make([]DocumentLinePayload, 0, len(order.Lines)+1),
	}

	for _, line := range order.Lines {
		doc.DocumentLines = append(doc.DocumentLines, DocumentLinePayload{
			ItemCode:        SanitizeItemCode(line.SKU),
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent(),
			WarehouseCode:   line.WarehouseCode,
			TaxCode:         line.TaxCode,
			FreeText:        renderLineMeta(line.Meta),
		})
	}

	if order.ShippingTotal.IsPositive() {
		doc.DocumentLines = append(doc.DocumentLines, DocumentLinePayload{
			ItemCode:        m.config.ShippingItemCode,
			Quantity:        decimal.NewFromInt(1),
			UnitPrice:       order.ShippingTotal,
			DiscountPercent: decimal.Zero,
			FreeText:        "Shipping",
		})
	}

	return doc
}

// buildComments joins order number, customer note and payment method into
// the document comment, skipping empty parts.
func (m *OrderMapper) buildComments(order *integration.StoreOrder) string {
	parts := make([]string, 0, 3)
	if order.Number != "" {
		parts = append(parts, "Order "+order.Number)
	}
	if order.CustomerNote != "" {
		parts = append(parts, order.CustomerNote)
	}
	if order.PaymentMethod != "" {
		parts = append(parts, "Paid via "+order.PaymentMethod)
	}
	return strings.Join(parts, "\n")
}

// SanitizeItemCode strips every character outside alphanumerics and
// `-`, `_`, `.` from an item code.
func SanitizeItemCode(sku string) string {
	var b strings.Builder
	b.Grow(len(sku))
	for _, r := range sku {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// renderLineMeta renders item meta as "key: value" pairs, comma-joined in
// key order.
func renderLineMeta(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+meta[k])
	}
	return strings.Join(parts, ", ")
}
