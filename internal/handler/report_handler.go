package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sala-digital/attendance-api/internal/dto"
	"github.com/sala-digital/attendance-api/internal/service"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
	"github.com/sala-digital/attendance-api/pkg/response"
)

type reportService interface {
	Monthly(ctx context.Context, month, classKey, shiftKey string) (*dto.MonthlyReportResponse, error)
	ExportMonthly(ctx context.Context, month, classKey, shiftKey string, format service.ExportFormat) ([]byte, string, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Monthly godoc
// @Summary Monthly attendance report
// @Description Per-student absence and late aggregates for one month
// @Tags Reports
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Param classKey query string false "Class key"
// @Param shiftKey query string false "Shift key"
// @Success 200 {object} response.Envelope
// @Router /reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month is required"))
		return
	}

	report, err := h.service.Monthly(c.Request.Context(), month, c.Query("classKey"), c.Query("shiftKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export monthly report
// @Description Download the monthly report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param month query string true "Month (YYYY-MM)"
// @Param classKey query string false "Class key"
// @Param shiftKey query string false "Shift key"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /reports/monthly/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month is required"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	payload, filename, err := h.service.ExportMonthly(c.Request.Context(), month, c.Query("classKey"), c.Query("shiftKey"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), payload)
}
