package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sala-digital/attendance-api/internal/dto"
)

type fakeDashboardSrv struct {
	resp        *dto.DashboardResponse
	err         error
	lastInclude bool
}

func (f *fakeDashboardSrv) Summary(_ context.Context, includeStatuses bool) (*dto.DashboardResponse, error) {
	f.lastInclude = includeStatuses
	return f.resp, f.err
}

func TestDashboardHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{resp: &dto.DashboardResponse{
		Date:   "2024-03-12",
		Counts: dto.DashboardCounts{Present: 3, Absent: 1, Total: 4},
	}}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, srv.lastInclude)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "2024-03-12", envelope.Data["date"])
	assert.NotNil(t, envelope.Meta["processing_time_ms"])
}

func TestDashboardHandlerSummaryIncludeStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{resp: &dto.DashboardResponse{Date: "2024-03-12"}}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard?includeStatuses=true", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.lastInclude)
}

func TestDashboardHandlerNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
