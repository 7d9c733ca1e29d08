package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sala-digital/attendance-api/internal/service"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
	"github.com/sala-digital/attendance-api/pkg/response"
)

// ScheduleHandler exposes class schedule and holiday admin endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// ListSchedules godoc
// @Summary List class schedules
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.service.ListSchedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// GetSchedule godoc
// @Summary Get one class schedule
// @Tags Schedules
// @Produce json
// @Param classKey path string true "Class key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{classKey} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.service.GetSchedule(c.Request.Context(), c.Param("classKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// UpsertSchedule godoc
// @Summary Create or replace a class schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.UpsertScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [put]
func (h *ScheduleHandler) UpsertSchedule(c *gin.Context) {
	var req service.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	schedule, err := h.service.UpsertSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ListHolidays godoc
// @Summary List holidays
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *ScheduleHandler) ListHolidays(c *gin.Context) {
	holidays, err := h.service.ListHolidays(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays, nil)
}

// CreateHoliday godoc
// @Summary Add a holiday
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.HolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /holidays [post]
func (h *ScheduleHandler) CreateHoliday(c *gin.Context) {
	var req service.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}

	holiday, err := h.service.CreateHoliday(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// DeleteHoliday godoc
// @Summary Remove a holiday
// @Tags Schedules
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 204 {object} response.Envelope
// @Router /holidays/{date} [delete]
func (h *ScheduleHandler) DeleteHoliday(c *gin.Context) {
	if err := h.service.DeleteHoliday(c.Request.Context(), c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
