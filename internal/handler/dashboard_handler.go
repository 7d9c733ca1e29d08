package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sala-digital/attendance-api/internal/dto"
	"github.com/sala-digital/attendance-api/internal/middleware"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
	"github.com/sala-digital/attendance-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, includeStatuses bool) (*dto.DashboardResponse, error)
}

// DashboardHandler wires the dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Today's attendance overview
// @Description Per-status counts, per-class breakdown and streak alerts for today
// @Tags Dashboard
// @Produce json
// @Param includeStatuses query bool false "Include per-student verdicts"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	includeStatuses := c.Query("includeStatuses") == "true"

	start := time.Now()
	summary, err := h.service.Summary(c.Request.Context(), includeStatuses)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
