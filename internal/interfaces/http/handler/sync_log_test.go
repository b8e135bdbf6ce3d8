package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyncLogLister struct {
	entries []integration.SyncLogEntry
	err     error
	filter  integration.SyncLogFilter
}

func (s *stubSyncLogLister) List(_ context.Context, filter integration.SyncLogFilter) ([]integration.SyncLogEntry, error) {
	s.filter = filter
	return s.entries, s.err
}

func setupSyncLogRouter(logs SyncLogLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewSyncLogHandler(logs).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestSyncLogHandler_List(t *testing.T) {
	entry := integration.SyncLogEntry{
		ID:        uuid.New(),
		SyncType:  integration.JobTypeOrderSync,
		LocalID:   "42",
		ERPID:     "1234",
		Status:    integration.SyncStatusSynced,
		Direction: integration.SyncDirectionPush,
		Message:   "order pushed",
		CreatedAt: time.Now().UTC(),
	}
	logs := &stubSyncLogLister{entries: []integration.SyncLogEntry{entry}}
	router := setupSyncLogRouter(logs)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sync-logs", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultSyncLogLimit, logs.filter.Limit)

	resp := decodeResponse(t, w)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)

	first, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "order-sync", first["sync_type"])
	assert.Equal(t, "42", first["local_id"])
	assert.Equal(t, "1234", first["erp_id"])
	assert.Equal(t, "PUSH", first["direction"])
}

func TestSyncLogHandler_List_Filters(t *testing.T) {
	logs := &stubSyncLogLister{}
	router := setupSyncLogRouter(logs)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet,
		"/api/v1/sync-logs?type=stock-pull&status=FAILED&local_id=7&since=2026-03-01T00:00:00Z&limit=25", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, logs.filter.SyncType)
	assert.Equal(t, integration.JobTypeStockPull, *logs.filter.SyncType)
	require.NotNil(t, logs.filter.Status)
	assert.Equal(t, integration.SyncStatus("FAILED"), *logs.filter.Status)
	assert.Equal(t, "7", logs.filter.LocalID)
	require.NotNil(t, logs.filter.Since)
	assert.Equal(t, 2026, logs.filter.Since.Year())
	assert.Equal(t, 25, logs.filter.Limit)
}

func TestSyncLogHandler_List_UnknownType(t *testing.T) {
	logs := &stubSyncLogLister{}
	router := setupSyncLogRouter(logs)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sync-logs?type=bogus", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncLogHandler_List_BadSince(t *testing.T) {
	logs := &stubSyncLogLister{}
	router := setupSyncLogRouter(logs)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sync-logs?since=yesterday", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
