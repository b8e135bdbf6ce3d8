package sapb1

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/connector/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Response Normalizer
// ---------------------------------------------------------------------------
// Pure functions mapping raw Service Layer payloads into internal value
// objects, stripping transport metadata. The Service Layer speaks OData v3
// or v4 depending on the path version, so pagination and error metadata
// are probed in both spellings (v3 first).

// Collection is a normalized entity collection page.
type Collection struct {
	Items []map[string]any
	Count *int64
	// NextLink is the opaque next-page token, empty on the last page.
	NextLink string
}

// ParseCollection extracts the items array and optional pagination
// metadata from a collection response.
func ParseCollection(raw []byte) (*Collection, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("sapb1: malformed collection payload: %w", err)
	}

	coll := &Collection{Items: make([]map[string]any, 0)}

	if items, ok := payload["value"].([]any); ok {
		for _, it := range items {
			if entity, ok := it.(map[string]any); ok {
				coll.Items = append(coll.Items, stripMetadata(entity))
			}
		}
	}

	// OData v3 spelling first, then v4.
	for _, key := range []string{"odata.count", "@odata.count"} {
		if v, ok := payload[key]; ok {
			n := int64(asFloat(v))
			coll.Count = &n
			break
		}
	}
	for _, key := range []string{"odata.nextLink", "@odata.nextLink"} {
		if v, ok := payload[key].(string); ok {
			coll.NextLink = v
			break
		}
	}

	return coll, nil
}

// ParseEntity decodes a single entity and strips protocol metadata keys.
func ParseEntity(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("sapb1: malformed entity payload: %w", err)
	}
	return stripMetadata(payload), nil
}

// ParseError extracts an error code and message from either of the two
// nested error-shape conventions. Falls back to "unknown error".
func ParseError(raw []byte) (code string, message string) {
	message = "unknown error"
	if len(raw) == 0 {
		return "", message
	}

	var payload struct {
		Error struct {
			Code    json.Number     `json:"code"`
			Message json.RawMessage `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", message
	}
	code = payload.Error.Code.String()

	// v3 shape: "message": {"lang": "en-us", "value": "..."}
	var nested struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(payload.Error.Message, &nested); err == nil && nested.Value != "" {
		return code, nested.Value
	}

	// v4 shape: "message": "..."
	var flat string
	if err := json.Unmarshal(payload.Error.Message, &flat); err == nil && flat != "" {
		return code, flat
	}

	return code, message
}

// ParseItemStock normalizes the stock position of one item. Available
// quantity is derived per warehouse as in-stock minus committed.
func ParseItemStock(raw []byte) (*integration.ItemStock, error) {
	entity, err := ParseEntity(raw)
	if err != nil {
		return nil, err
	}
	return ItemStockFromEntity(entity), nil
}

// ItemStockFromEntity normalizes the stock position of an already-decoded
// item entity, as returned inside collection pages.
func ItemStockFromEntity(entity map[string]any) *integration.ItemStock {
	stock := &integration.ItemStock{
		ItemCode:    asString(entity["ItemCode"]),
		Total:       asDecimal(entity["QuantityOnStock"]),
		ByWarehouse: make(map[string]integration.WarehouseStock),
	}

	warehouses, _ := entity["ItemWarehouseInfoCollection"].([]any)
	for _, w := range warehouses {
		info, ok := w.(map[string]any)
		if !ok {
			continue
		}
		whsCode := asString(info["WarehouseCode"])
		if whsCode == "" {
			continue
		}
		inStock := asDecimal(info["InStock"])
		committed := asDecimal(info["Committed"])
		stock.ByWarehouse[whsCode] = integration.WarehouseStock{
			WarehouseCode: whsCode,
			InStock:       inStock,
			Committed:     committed,
			Available:     inStock.Sub(committed),
		}
	}

	return stock
}

// ParseOrder normalizes a sales document.
func ParseOrder(raw []byte) (*integration.ERPDocument, error) {
	entity, err := ParseEntity(raw)
	if err != nil {
		return nil, err
	}

	doc := &integration.ERPDocument{
		DocEntry:   int64(asFloat(entity["DocEntry"])),
		DocNum:     asString(entity["DocNum"]),
		CardCode:   asString(entity["CardCode"]),
		DocTotal:   asDecimal(entity["DocTotal"]),
		NumAtCard:  asString(entity["NumAtCard"]),
		Comments:   asString(entity["Comments"]),
		Cancelled:  NormalizeBool(entity["Cancelled"]),
		DocDate:    asDate(entity["DocDate"]),
		DocDueDate: asDate(entity["DocDueDate"]),
	}
	doc.DocumentLine = parseLines(entity["DocumentLines"])
	return doc, nil
}

// ParseBusinessPartner normalizes a business partner record.
func ParseBusinessPartner(raw []byte) (*integration.ERPBusinessPartner, error) {
	entity, err := ParseEntity(raw)
	if err != nil {
		return nil, err
	}
	return businessPartnerFromEntity(entity), nil
}

// businessPartnerFromEntity maps an already-decoded entity.
func businessPartnerFromEntity(entity map[string]any) *integration.ERPBusinessPartner {
	return &integration.ERPBusinessPartner{
		CardCode:     asString(entity["CardCode"]),
		CardName:     asString(entity["CardName"]),
		CardType:     asString(entity["CardType"]),
		EmailAddress: asString(entity["EmailAddress"]),
		Phone:        asString(entity["Phone1"]),
		Valid:        NormalizeBool(entity["Valid"]),
		Frozen:       NormalizeBool(entity["Frozen"]),
	}
}

// ParseDocumentLines extracts the document lines of a sales document.
func ParseDocumentLines(raw []byte) ([]integration.ERPDocumentLine, error) {
	entity, err := ParseEntity(raw)
	if err != nil {
		return nil, err
	}
	return parseLines(entity["DocumentLines"]), nil
}

func parseLines(v any) []integration.ERPDocumentLine {
	rawLines, _ := v.([]any)
	lines := make([]integration.ERPDocumentLine, 0, len(rawLines))
	for _, l := range rawLines {
		entry, ok := l.(map[string]any)
		if !ok {
			continue
		}
		lines = append(lines, integration.ERPDocumentLine{
			LineNum:       int(asFloat(entry["LineNum"])),
			ItemCode:      asString(entry["ItemCode"]),
			Quantity:      asDecimal(entry["Quantity"]),
			Price:         asDecimal(entry["Price"]),
			DiscountPct:   asDecimal(entry["DiscountPercent"]),
			WarehouseCode: asString(entry["WarehouseCode"]),
		})
	}
	return lines
}

// NormalizeBool treats a closed set of truthy tokens as true: the strings
// "yes", "y", "1", "true" (case-insensitive), the SAP-specific "tYES",
// plus actual boolean true and numeric 1. Everything else is false.
func NormalizeBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "1", "true", "tyes":
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Coercion Helpers
// ---------------------------------------------------------------------------

// stripMetadata removes OData protocol keys (both v3 "odata.*" and v4
// "@odata.*" spellings) from an entity.
func stripMetadata(entity map[string]any) map[string]any {
	for key := range entity {
		if strings.HasPrefix(key, "odata.") || strings.HasPrefix(key, "@odata.") {
			delete(entity, key)
		}
	}
	return entity
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return decimal.NewFromFloat(s).String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return 0
		}
		f, _ := d.Float64()
		return f
	default:
		return 0
	}
}

func asDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func asDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
