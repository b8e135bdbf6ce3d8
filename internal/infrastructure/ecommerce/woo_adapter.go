package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/connector/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the store API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// WooAdapter implements the StoreGateway contract against a WooCommerce store.
type WooAdapter struct {
	config     *WooConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time interface check
var _ integration.StoreGateway = (*WooAdapter)(nil)

// NewWooAdapter creates a new WooCommerce adapter with the given configuration
func NewWooAdapter(config *WooConfig, logger *zap.Logger) (*WooAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WooAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// GetOrder retrieves one order from the store
func (a *WooAdapter) GetOrder(ctx context.Context, orderID int64) (*integration.StoreOrder, error) {
	body, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil, integration.ErrOrderNotFound)
	if err != nil {
		return nil, err
	}

	var order wooOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, integration.NewAPIError(0, "", fmt.Sprintf("woocommerce: malformed order payload: %v", err))
	}

	return order.toDomain(), nil
}

// GetCustomer retrieves one customer account from the store
func (a *WooAdapter) GetCustomer(ctx context.Context, customerID int64) (*integration.StoreCustomer, error) {
	body, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf("/customers/%d", customerID), nil, integration.ErrCustomerNotFound)
	if err != nil {
		return nil, err
	}

	var customer wooCustomer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, integration.NewAPIError(0, "", fmt.Sprintf("woocommerce: malformed customer payload: %v", err))
	}

	return customer.toDomain(), nil
}

// SetOrderERPReference stores the ERP document identifiers on the order as
// order meta so the storefront can display and filter on them.
func (a *WooAdapter) SetOrderERPReference(ctx context.Context, orderID int64, docEntry int64, docNum string) error {
	payload := map[string]interface{}{
		"meta_data": []wooMetaData{
			{Key: "_erp_doc_entry", Value: strconv.FormatInt(docEntry, 10)},
			{Key: "_erp_doc_num", Value: docNum},
		},
	}

	_, err := a.doRequest(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", orderID), payload, integration.ErrOrderNotFound)
	return err
}

// AppendOrderNote appends a private note to the order timeline
func (a *WooAdapter) AppendOrderNote(ctx context.Context, orderID int64, note string) error {
	payload := map[string]interface{}{
		"note":          note,
		"customer_note": false,
	}

	_, err := a.doRequest(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/notes", orderID), payload, integration.ErrOrderNotFound)
	return err
}

// UpdateProductStock writes a new stock quantity for a product
func (a *WooAdapter) UpdateProductStock(ctx context.Context, productID int64, quantity decimal.Decimal) error {
	payload := map[string]interface{}{
		"stock_quantity": quantity.InexactFloat64(),
		"manage_stock":   true,
	}

	_, err := a.doRequest(ctx, http.MethodPut, fmt.Sprintf("/products/%d", productID), payload, integration.ErrProductNotFound)
	return err
}

// doRequest performs one authenticated request against the wc/v3 API.
// notFound is the sentinel returned for 404 so callers keep their
// entity-specific not-found semantics.
func (a *WooAdapter) doRequest(ctx context.Context, method, path string, payload interface{}, notFound error) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := a.config.BaseURL + wooAPIPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	a.logger.Debug("store request", zap.String("method", method), zap.String("path", path))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewConnectionError("woocommerce: store unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, integration.NewConnectionError("woocommerce: failed to read response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound
	}
	if resp.StatusCode >= 400 {
		apiErr := wooAPIError{}
		_ = json.Unmarshal(body, &apiErr)
		message := apiErr.Message
		if message == "" {
			message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		a.logger.Warn("store request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
		)
		return nil, integration.NewAPIError(resp.StatusCode, apiErr.Code, "woocommerce: "+message)
	}

	return body, nil
}
