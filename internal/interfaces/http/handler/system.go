package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	appintegration "github.com/erp/connector/internal/application/integration"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SettingsReader is the read side of the key-value settings store.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	settings  SettingsReader
}

// NewSystemHandler creates a new SystemHandler. The settings reader may be
// nil; the info endpoint then omits sync state.
func NewSystemHandler(settings SettingsReader) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		settings:  settings,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name           string `json:"name" example:"ERP Connector"`
	Version        string `json:"version" example:"1.0.0"`
	GoVersion      string `json:"go_version" example:"go1.25.5"`
	Uptime         string `json:"uptime" example:"1h30m45s"`
	LastFullSyncAt string `json:"last_full_sync_at,omitempty" example:"2026-01-23T12:00:00Z"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "ERP Connector",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.settings != nil {
		// Best effort; an unreadable watermark leaves the field empty.
		if stamp, err := h.settings.Get(c.Request.Context(), appintegration.SettingLastFullSync); err == nil {
			info.LastFullSyncAt = stamp
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// RegisterRoutes registers all system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
		system.GET("/ping", h.Ping)
	}
}
