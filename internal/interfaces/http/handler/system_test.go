package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettingsReader struct {
	values map[string]string
}

func (s *stubSettingsReader) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func setupSystemRouter(settings SettingsReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewSystemHandler(settings).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	router := setupSystemRouter(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ERP Connector", data["name"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
	_, hasWatermark := data["last_full_sync_at"]
	assert.False(t, hasWatermark)
}

func TestSystemHandler_GetSystemInfo_WithWatermark(t *testing.T) {
	settings := &stubSettingsReader{values: map[string]string{
		"stock.last_full_sync_at": "2026-08-28T06:00:00Z",
	}}
	router := setupSystemRouter(settings)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2026-08-28T06:00:00Z", data["last_full_sync_at"])
}

func TestSystemHandler_Ping(t *testing.T) {
	router := setupSystemRouter(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pong", data["message"])
}
