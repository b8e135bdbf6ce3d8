package handler

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Store webhook event names.
const (
	OrderEventCreated       = "created"
	OrderEventStatusChanged = "status_changed"
	OrderEventRefunded      = "refunded"

	ProductEventSaved        = "saved"
	ProductEventDeleted      = "deleted"
	ProductEventStockReduced = "stock_reduced"
)

// StoreEventSink receives change notifications from the e-commerce store.
type StoreEventSink interface {
	OnOrderCreated(ctx context.Context, orderID int64) error
	OnOrderStatusChanged(ctx context.Context, orderID int64, status string) error
	OnOrderRefunded(ctx context.Context, orderID int64) error
	OnStockReduced(ctx context.Context, productID int64) error
	OnProductSaved(ctx context.Context, productID int64) error
	OnProductDeleted(ctx context.Context, productID int64) error
}

// WebhookHandler receives store webhooks and turns them into queued sync
// work. It never calls the ERP inline; a webhook only enqueues.
type WebhookHandler struct {
	BaseHandler
	events StoreEventSink
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(events StoreEventSink) *WebhookHandler {
	return &WebhookHandler{events: events}
}

// OrderWebhookRequest is the order webhook body
type OrderWebhookRequest struct {
	OrderID int64  `json:"order_id" binding:"required,gt=0" example:"42"`
	Event   string `json:"event" binding:"required,oneof=created status_changed refunded" example:"created"`
	Status  string `json:"status" example:"processing"`
}

// ProductWebhookRequest is the product webhook body
type ProductWebhookRequest struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0" example:"7"`
	Event     string `json:"event" binding:"required,oneof=saved deleted stock_reduced" example:"stock_reduced"`
}

// WebhookAccepted acknowledges a received webhook
type WebhookAccepted struct {
	Received bool `json:"received" example:"true"`
}

// OrderEvent godoc
// @Summary      Receive an order webhook from the store
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body OrderWebhookRequest true "Order event"
// @Success      202 {object} APIResponse[WebhookAccepted]
// @Failure      400 {object} ErrorResponse
// @Router       /webhooks/orders [post]
func (h *WebhookHandler) OrderEvent(c *gin.Context) {
	var req OrderWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "order_id and a known event are required")
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Event {
	case OrderEventCreated:
		err = h.events.OnOrderCreated(ctx, req.OrderID)
	case OrderEventStatusChanged:
		err = h.events.OnOrderStatusChanged(ctx, req.OrderID, req.Status)
	case OrderEventRefunded:
		err = h.events.OnOrderRefunded(ctx, req.OrderID)
	}
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Accepted(c, WebhookAccepted{Received: true})
}

// ProductEvent godoc
// @Summary      Receive a product webhook from the store
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body ProductWebhookRequest true "Product event"
// @Success      202 {object} APIResponse[WebhookAccepted]
// @Failure      400 {object} ErrorResponse
// @Router       /webhooks/products [post]
func (h *WebhookHandler) ProductEvent(c *gin.Context) {
	var req ProductWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "product_id and a known event are required")
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Event {
	case ProductEventSaved:
		err = h.events.OnProductSaved(ctx, req.ProductID)
	case ProductEventDeleted:
		err = h.events.OnProductDeleted(ctx, req.ProductID)
	case ProductEventStockReduced:
		err = h.events.OnStockReduced(ctx, req.ProductID)
	}
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Accepted(c, WebhookAccepted{Received: true})
}

// RegisterRoutes registers all webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/orders", h.OrderEvent)
		webhooks.POST("/products", h.ProductEvent)
	}
}
