package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sala-digital/attendance-api/internal/dto"
	"github.com/sala-digital/attendance-api/internal/service"
)

type fakeReportSrv struct {
	report     *dto.MonthlyReportResponse
	err        error
	payload    []byte
	filename   string
	lastFormat service.ExportFormat
}

func (f *fakeReportSrv) Monthly(_ context.Context, month, classKey, shiftKey string) (*dto.MonthlyReportResponse, error) {
	return f.report, f.err
}

func (f *fakeReportSrv) ExportMonthly(_ context.Context, month, classKey, shiftKey string, format service.ExportFormat) ([]byte, string, error) {
	f.lastFormat = format
	return f.payload, f.filename, f.err
}

func TestReportHandlerMonthlyRequiresMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/monthly", nil)

	handler.Monthly(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandlerMonthly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportSrv{report: &dto.MonthlyReportResponse{Month: "2024-03"}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/monthly?month=2024-03", nil)

	handler.Monthly(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportHandlerExportDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{payload: []byte("a,b\n"), filename: "attendance-2024-03.csv"}
	handler := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/monthly/export?month=2024-03", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportCSV, srv.lastFormat)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-2024-03.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestReportHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{payload: []byte("%PDF"), filename: "attendance-2024-03.pdf"}
	handler := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/monthly/export?month=2024-03&format=pdf", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportPDF, srv.lastFormat)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}
