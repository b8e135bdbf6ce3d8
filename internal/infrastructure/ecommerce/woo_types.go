package ecommerce

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/connector/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Wire types (wc/v3 JSON shapes)
// ---------------------------------------------------------------------------

type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type wooMetaData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type wooLineItem struct {
	ProductID int64         `json:"product_id"`
	SKU       string        `json:"sku"`
	Name      string        `json:"name"`
	Quantity  float64       `json:"quantity"`
	Price     interface{}   `json:"price"`
	Subtotal  string        `json:"subtotal"`
	Total     string        `json:"total"`
	MetaData  []wooMetaData `json:"meta_data"`
}

type wooOrder struct {
	ID            int64         `json:"id"`
	Number        string        `json:"number"`
	CustomerID    int64         `json:"customer_id"`
	CustomerNote  string        `json:"customer_note"`
	PaymentMethod string        `json:"payment_method"`
	DateCreated   string        `json:"date_created_gmt"`
	Total         string        `json:"total"`
	ShippingTotal string        `json:"shipping_total"`
	Billing       wooAddress    `json:"billing"`
	Shipping      wooAddress    `json:"shipping"`
	LineItems     []wooLineItem `json:"line_items"`
}

type wooCustomer struct {
	ID      int64      `json:"id"`
	Email   string     `json:"email"`
	Billing wooAddress `json:"billing"`
}

type wooAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Wire -> domain conversion
// ---------------------------------------------------------------------------

// parseWooDecimal parses WooCommerce money strings, tolerating bare numbers.
func parseWooDecimal(value interface{}) decimal.Decimal {
	switch v := value.(type) {
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

// parseWooDate parses the GMT timestamps the API returns. They carry no
// zone suffix, so the value is interpreted as UTC.
func parseWooDate(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}

func (a wooAddress) toDomain() integration.StoreAddress {
	return integration.StoreAddress{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Line1:      a.Address1,
		Line2:      a.Address2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.Postcode,
		Country:    a.Country,
		Email:      a.Email,
		Phone:      a.Phone,
	}
}

func (l wooLineItem) toDomain() integration.StoreOrderLine {
	line := integration.StoreOrderLine{
		ProductID: l.ProductID,
		SKU:       l.SKU,
		Name:      l.Name,
		Quantity:  decimal.NewFromFloat(l.Quantity),
		UnitPrice: parseWooDecimal(l.Price),
		Subtotal:  parseWooDecimal(l.Subtotal),
		Total:     parseWooDecimal(l.Total),
		Meta:      make(map[string]string),
	}
	for _, meta := range l.MetaData {
		// Keys with a leading underscore are plugin-internal bookkeeping.
		if strings.HasPrefix(meta.Key, "_") {
			continue
		}
		if value, ok := meta.Value.(string); ok {
			line.Meta[trimAttributePrefix(meta.Key)] = value
		}
	}
	return line
}

// trimAttributePrefix normalizes attribute keys like "pa_color" to their display form.
func trimAttributePrefix(key string) string {
	return strings.TrimPrefix(key, "pa_")
}

func (o wooOrder) toDomain() *integration.StoreOrder {
	order := &integration.StoreOrder{
		ID:            o.ID,
		Number:        o.Number,
		CustomerID:    o.CustomerID,
		CustomerNote:  o.CustomerNote,
		PaymentMethod: o.PaymentMethod,
		DateCreated:   parseWooDate(o.DateCreated),
		Total:         parseWooDecimal(o.Total),
		ShippingTotal: parseWooDecimal(o.ShippingTotal),
		Billing:       o.Billing.toDomain(),
		Shipping:      o.Shipping.toDomain(),
		Lines:         make([]integration.StoreOrderLine, 0, len(o.LineItems)),
	}
	for _, item := range o.LineItems {
		line := item.toDomain()
		order.Lines = append(order.Lines, line)
		order.Subtotal = order.Subtotal.Add(line.Subtotal)
	}
	return order
}

func (c wooCustomer) toDomain() *integration.StoreCustomer {
	return &integration.StoreCustomer{
		ID:      c.ID,
		Email:   c.Email,
		Phone:   c.Billing.Phone,
		Billing: c.Billing.toDomain(),
	}
}
