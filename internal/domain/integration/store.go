package integration

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Storefront Accessor Contracts
// ---------------------------------------------------------------------------

// StoreAddress holds one postal address from the storefront.
type StoreAddress struct {
	FirstName  string
	LastName   string
	Company    string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Email      string
	Phone      string
}

// DisplayName returns the company name when present, otherwise the
// first+last name.
func (a StoreAddress) DisplayName() string {
	if a.Company != "" {
		return a.Company
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Equal compares the address fields relevant for ship-to deduplication.
func (a StoreAddress) Equal(b StoreAddress) bool {
	return a.Line1 == b.Line1 &&
		a.Line2 == b.Line2 &&
		a.City == b.City &&
		a.State == b.State &&
		a.PostalCode == b.PostalCode &&
		a.Country == b.Country
}

// StoreOrderLine is one line item of a storefront order.
type StoreOrderLine struct {
	ProductID     int64
	SKU           string
	Name          string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
	Total         decimal.Decimal
	WarehouseCode string
	TaxCode       string
	Meta          map[string]string
}

// DiscountPercent derives the line discount from subtotal vs total:
// max(0, (subtotal-total)/subtotal*100) rounded to two decimals, zero when
// the subtotal is not positive.
func (l StoreOrderLine) DiscountPercent() decimal.Decimal {
	if !l.Subtotal.IsPositive() {
		return decimal.Zero
	}
	pct := l.Subtotal.Sub(l.Total).
		Div(l.Subtotal).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// StoreOrder is the read model of a storefront order, consumed through the
// StoreGateway accessor contract.
type StoreOrder struct {
	ID            int64
	Number        string
	CustomerID    int64
	CustomerNote  string
	PaymentMethod string
	DateCreated   time.Time
	Lines         []StoreOrderLine
	Subtotal      decimal.Decimal
	Total         decimal.Decimal
	ShippingTotal decimal.Decimal
	Billing       StoreAddress
	Shipping      StoreAddress
}

// ContactEmail returns the billing email.
func (o *StoreOrder) ContactEmail() string {
	return o.Billing.Email
}

// ContactPhone returns the billing phone.
func (o *StoreOrder) ContactPhone() string {
	return o.Billing.Phone
}

// StoreCustomer is the read model of a storefront customer account.
type StoreCustomer struct {
	ID      int64
	Email   string
	Phone   string
	Billing StoreAddress
}

// StoreGateway is the accessor contract onto the storefront platform. The
// storefront's own order/product/customer lifecycle stays outside the sync
// core; this interface is the full extent of what the core reads or writes.
type StoreGateway interface {
	GetOrder(ctx context.Context, orderID int64) (*StoreOrder, error)
	GetCustomer(ctx context.Context, customerID int64) (*StoreCustomer, error)

	// SetOrderERPReference stores the ERP document identifiers on the order.
	SetOrderERPReference(ctx context.Context, orderID int64, docEntry int64, docNum string) error

	// AppendOrderNote appends a human-readable audit note to the order.
	AppendOrderNote(ctx context.Context, orderID int64, note string) error

	// UpdateProductStock writes a new stock quantity for a product.
	UpdateProductStock(ctx context.Context, productID int64, quantity decimal.Decimal) error
}
