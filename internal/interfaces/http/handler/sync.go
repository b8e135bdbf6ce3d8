package handler

import (
	"context"
	"strconv"

	appintegration "github.com/erp/connector/internal/application/integration"
	"github.com/gin-gonic/gin"
)

// OrderSyncer pushes a single store order to the ERP.
type OrderSyncer interface {
	SyncOrder(ctx context.Context, orderID int64) error
}

// StockSyncer pulls stock levels from the ERP back into the store.
type StockSyncer interface {
	PullProductStock(ctx context.Context, productID int64) error
	FullSync(ctx context.Context) (*appintegration.StockSyncReport, error)
}

// SyncHandler exposes manual sync triggers for operators. The same
// operations normally run through the job queue; these endpoints run
// them inline so a stuck record can be pushed through without waiting.
type SyncHandler struct {
	BaseHandler
	orders OrderSyncer
	stock  StockSyncer
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orders OrderSyncer, stock StockSyncer) *SyncHandler {
	return &SyncHandler{
		orders: orders,
		stock:  stock,
	}
}

// OrderSyncResponse reports the outcome of a manual order sync
type OrderSyncResponse struct {
	OrderID int64  `json:"order_id" example:"42"`
	Status  string `json:"status" example:"SYNCED"`
}

// ProductStockResponse reports the outcome of a manual stock pull
type ProductStockResponse struct {
	ProductID int64  `json:"product_id" example:"7"`
	Status    string `json:"status" example:"SYNCED"`
}

// FullStockSyncResponse reports the outcome of a full stock reconciliation
type FullStockSyncResponse struct {
	Synced  int `json:"synced" example:"120"`
	Failed  int `json:"failed" example:"0"`
	Skipped int `json:"skipped" example:"3"`
}

// SyncOrder godoc
// @Summary      Push an order to the ERP
// @Description  Runs the order sync inline and reports the result
// @Tags         sync
// @Produce      json
// @Param        id path int true "Store order ID"
// @Success      200 {object} APIResponse[OrderSyncResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /sync/orders/{id} [post]
func (h *SyncHandler) SyncOrder(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.orders.SyncOrder(c.Request.Context(), orderID); err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Success(c, OrderSyncResponse{OrderID: orderID, Status: "SYNCED"})
}

// PullProductStock godoc
// @Summary      Pull one product's stock from the ERP
// @Tags         sync
// @Produce      json
// @Param        id path int true "Store product ID"
// @Success      200 {object} APIResponse[ProductStockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /sync/products/{id}/stock [post]
func (h *SyncHandler) PullProductStock(c *gin.Context) {
	productID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.stock.PullProductStock(c.Request.Context(), productID); err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Success(c, ProductStockResponse{ProductID: productID, Status: "SYNCED"})
}

// FullStockSync godoc
// @Summary      Reconcile stock for every mapped product
// @Tags         sync
// @Produce      json
// @Success      200 {object} APIResponse[FullStockSyncResponse]
// @Failure      502 {object} ErrorResponse
// @Router       /sync/stock/full [post]
func (h *SyncHandler) FullStockSync(c *gin.Context) {
	report, err := h.stock.FullSync(c.Request.Context())
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Success(c, FullStockSyncResponse{
		Synced:  report.Synced,
		Failed:  report.Failed,
		Skipped: report.Skipped,
	})
}

// pathID parses the numeric :id path parameter
func (h *SyncHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// RegisterRoutes registers all manual sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/orders/:id", h.SyncOrder)
		sync.POST("/products/:id/stock", h.PullProductStock)
		sync.POST("/stock/full", h.FullStockSync)
	}
}
