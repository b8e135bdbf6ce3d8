package handler

import (
	"errors"
	"net/http"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with listing meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, limit, returned int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, limit, returned))
}

// Accepted sends a 202 accepted response for work that runs asynchronously
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleSyncError converts integration errors to HTTP responses.
// Validation failures are the caller's fault, upstream failures map to
// 502 so monitoring can tell them apart from connector bugs.
func (h *BaseHandler) HandleSyncError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, integration.ErrOrderNotFound),
		errors.Is(err, integration.ErrCustomerNotFound),
		errors.Is(err, integration.ErrProductNotFound),
		errors.Is(err, integration.ErrMappingNotFound),
		errors.Is(err, integration.ErrJobNotFound),
		errors.Is(err, integration.ErrDeadLetterNotFound):
		h.NotFound(c, err.Error())
		return
	case errors.Is(err, integration.ErrDeadLetterResolved),
		errors.Is(err, integration.ErrDuplicateJob):
		h.Conflict(c, err.Error())
		return
	}

	if syncErr, ok := integration.AsError(err); ok {
		var code string
		switch syncErr.Kind {
		case integration.ErrorKindValidation:
			code = dto.ErrCodeValidation
		case integration.ErrorKindAuth:
			code = dto.ErrCodeUpstreamAuth
		case integration.ErrorKindConnection:
			code = dto.ErrCodeUpstreamConnection
		case integration.ErrorKindAPI:
			code = dto.ErrCodeUpstreamAPI
		default:
			code = dto.ErrCodeUnknown
		}
		h.Error(c, dto.GetHTTPStatus(code), code, syncErr.Error())
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
