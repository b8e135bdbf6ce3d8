package handler

import (
	"context"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultDeadLetterLimit caps unbounded dead letter listings.
const defaultDeadLetterLimit = 50

// DeadLetterResolver lists and resolves parked jobs.
type DeadLetterResolver interface {
	ListUnresolved(ctx context.Context, limit int) ([]integration.DeadLetterEntry, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution integration.DeadLetterResolution) error
}

// DeadLetterHandler handles dead letter API endpoints
type DeadLetterHandler struct {
	BaseHandler
	deadLetters DeadLetterResolver
}

// NewDeadLetterHandler creates a new DeadLetterHandler
func NewDeadLetterHandler(deadLetters DeadLetterResolver) *DeadLetterHandler {
	return &DeadLetterHandler{deadLetters: deadLetters}
}

// DeadLetterResponse represents a parked job in API responses
type DeadLetterResponse struct {
	ID           string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	JobType      string            `json:"job_type" example:"order-sync"`
	Group        string            `json:"group" example:"orders"`
	Payload      map[string]string `json:"payload"`
	ErrorMessage string            `json:"error_message" example:"ERP rejected document"`
	Attempts     int               `json:"attempts" example:"5"`
	FailedAt     time.Time         `json:"failed_at"`
}

// ResolveDeadLetterRequest is the resolve request body
type ResolveDeadLetterRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=RETRY DISCARD" example:"RETRY"`
}

// List godoc
// @Summary      List unresolved dead letters
// @Tags         dead-letters
// @Produce      json
// @Param        limit query int false "Maximum entries to return" default(50)
// @Success      200 {object} APIResponse[[]DeadLetterResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /dead-letters [get]
func (h *DeadLetterHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", defaultDeadLetterLimit)

	entries, err := h.deadLetters.ListUnresolved(c.Request.Context(), limit)
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	responses := make([]DeadLetterResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, DeadLetterResponse{
			ID:           entry.ID.String(),
			JobType:      string(entry.JobType),
			Group:        entry.Group,
			Payload:      entry.Payload,
			ErrorMessage: entry.ErrorMessage,
			Attempts:     entry.Attempts,
			FailedAt:     entry.FailedAt,
		})
	}

	h.Success(c, responses)
}

// Resolve godoc
// @Summary      Resolve a dead letter
// @Description  RETRY re-enqueues the job with a fresh retry budget, DISCARD abandons it
// @Tags         dead-letters
// @Accept       json
// @Produce      json
// @Param        id path string true "Dead letter ID"
// @Param        request body ResolveDeadLetterRequest true "Resolution"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /dead-letters/{id}/resolve [post]
func (h *DeadLetterHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	var req ResolveDeadLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "resolution must be RETRY or DISCARD")
		return
	}

	resolution := integration.DeadLetterResolution(req.Resolution)
	if err := h.deadLetters.Resolve(c.Request.Context(), id, resolution); err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all dead letter routes
func (h *DeadLetterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	deadLetters := rg.Group("/dead-letters")
	{
		deadLetters.GET("", h.List)
		deadLetters.POST("/:id/resolve", h.Resolve)
	}
}
