package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sala-digital/attendance-api/internal/models"
	"github.com/sala-digital/attendance-api/internal/service"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
	"github.com/sala-digital/attendance-api/pkg/response"
)

type attendanceService interface {
	RecordScan(ctx context.Context, req service.ScanRequest) (*service.ScanResult, error)
	Mark(ctx context.Context, req service.MarkRequest) (*models.AttendanceEvent, error)
	ListEvents(ctx context.Context, req service.EventListRequest) ([]models.AttendanceEvent, *models.Pagination, error)
	DailyCheck(ctx context.Context, classKey, shiftKey, date string) ([]models.DailyStudentStatus, error)
	StudentHistory(ctx context.Context, studentID, dateFrom, dateTo string) ([]models.DailyStudentStatus, error)
}

// AttendanceHandler exposes scan capture, manual marking and check boards.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Scan godoc
// @Summary Record a scan
// @Description Classify a QR scan against the student's shift window and store the event
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.ScanRequest true "Scan payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req service.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scan payload"))
		return
	}

	result, err := h.service.RecordScan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyRecorded {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}

// Mark godoc
// @Summary Manually mark attendance
// @Description Store a staff correction for one student and date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark payload"))
		return
	}

	event, err := h.service.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// List godoc
// @Summary List attendance events
// @Tags Attendance
// @Produce json
// @Param studentId query string false "Student ID"
// @Param classKey query string false "Class key"
// @Param shiftKey query string false "Shift key"
// @Param status query string false "Stored status (present|late)"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance/events [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	req := service.EventListRequest{
		StudentID: c.Query("studentId"),
		ClassKey:  c.Query("classKey"),
		ShiftKey:  c.Query("shiftKey"),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
		SortOrder: c.Query("sortOrder"),
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "100"))

	events, pagination, err := h.service.ListEvents(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// DailyCheck godoc
// @Summary Daily check board
// @Description Evaluate every rostered student of a class for one date
// @Tags Attendance
// @Produce json
// @Param classKey query string true "Class key"
// @Param shiftKey query string false "Shift key"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/daily-check [get]
func (h *AttendanceHandler) DailyCheck(c *gin.Context) {
	statuses, err := h.service.DailyCheck(c.Request.Context(), c.Query("classKey"), c.Query("shiftKey"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// StudentHistory godoc
// @Summary Student attendance history
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param dateFrom query string true "Start date (YYYY-MM-DD)"
// @Param dateTo query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/students/{id}/history [get]
func (h *AttendanceHandler) StudentHistory(c *gin.Context) {
	history, err := h.service.StudentHistory(c.Request.Context(), c.Param("id"), c.Query("dateFrom"), c.Query("dateTo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
