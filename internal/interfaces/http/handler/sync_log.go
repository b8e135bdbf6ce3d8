package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/gin-gonic/gin"
)

// defaultSyncLogLimit caps unbounded log listings.
const defaultSyncLogLimit = 100

// SyncLogLister reads the sync audit trail.
type SyncLogLister interface {
	List(ctx context.Context, filter integration.SyncLogFilter) ([]integration.SyncLogEntry, error)
}

// SyncLogHandler handles sync log API endpoints
type SyncLogHandler struct {
	BaseHandler
	logs SyncLogLister
}

// NewSyncLogHandler creates a new SyncLogHandler
func NewSyncLogHandler(logs SyncLogLister) *SyncLogHandler {
	return &SyncLogHandler{logs: logs}
}

// SyncLogResponse represents an audit entry in API responses
type SyncLogResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SyncType  string    `json:"sync_type" example:"order-sync"`
	LocalID   string    `json:"local_id" example:"42"`
	ERPID     string    `json:"erp_id" example:"1234"`
	Status    string    `json:"status" example:"SYNCED"`
	Direction string    `json:"direction" example:"PUSH"`
	Message   string    `json:"message" example:"order pushed"`
	CreatedAt time.Time `json:"created_at"`
}

// List godoc
// @Summary      Query the sync audit trail
// @Tags         sync-logs
// @Produce      json
// @Param        type     query string false "Job type filter"
// @Param        status   query string false "Status filter"
// @Param        local_id query string false "Local record ID filter"
// @Param        since    query string false "RFC3339 lower bound on created_at"
// @Param        limit    query int    false "Maximum entries to return" default(100)
// @Success      200 {object} APIResponse[[]SyncLogResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sync-logs [get]
func (h *SyncLogHandler) List(c *gin.Context) {
	filter := integration.SyncLogFilter{
		LocalID: c.Query("local_id"),
		Limit:   queryInt(c, "limit", defaultSyncLogLimit),
	}

	if raw := c.Query("type"); raw != "" {
		jobType := integration.JobType(raw)
		if !jobType.IsValid() {
			h.BadRequest(c, "unknown sync type: "+raw)
			return
		}
		filter.SyncType = &jobType
	}

	if raw := c.Query("status"); raw != "" {
		status := integration.SyncStatus(raw)
		filter.Status = &status
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "since must be an RFC3339 timestamp")
			return
		}
		filter.Since = &since
	}

	entries, err := h.logs.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	responses := make([]SyncLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, SyncLogResponse{
			ID:        entry.ID.String(),
			SyncType:  string(entry.SyncType),
			LocalID:   entry.LocalID,
			ERPID:     entry.ERPID,
			Status:    string(entry.Status),
			Direction: string(entry.Direction),
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}

	h.Success(c, responses)
}

// RegisterRoutes registers all sync log routes
func (h *SyncLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync-logs", h.List)
}

// queryInt parses an integer query parameter with a fallback default.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
