package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sala-digital/attendance-api/internal/models"
	"github.com/sala-digital/attendance-api/internal/service"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
	"github.com/sala-digital/attendance-api/pkg/response"
)

// PermissionHandler exposes leave permission endpoints.
type PermissionHandler struct {
	service *service.PermissionService
}

// NewPermissionHandler constructs the handler.
func NewPermissionHandler(svc *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{service: svc}
}

// Create godoc
// @Summary File a leave permission request
// @Description Public endpoint used by the parent-facing request form
// @Tags Permissions
// @Accept json
// @Produce json
// @Param payload body service.CreatePermissionRequest true "Permission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /permissions [post]
func (h *PermissionHandler) Create(c *gin.Context) {
	var req service.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permission payload"))
		return
	}

	permission, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, permission)
}

// List godoc
// @Summary List leave permission requests
// @Tags Permissions
// @Produce json
// @Param status query string false "pending|approved|denied"
// @Param studentId query string false "Student ID"
// @Param classKey query string false "Class key"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	filter := models.PermissionFilter{
		StudentID: c.Query("studentId"),
		ClassKey:  c.Query("classKey"),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.PermissionStatus(raw)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	permissions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permissions, pagination)
}

// Get godoc
// @Summary Get one leave permission request
// @Tags Permissions
// @Produce json
// @Param id path string true "Permission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /permissions/{id} [get]
func (h *PermissionHandler) Get(c *gin.Context) {
	permission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permission, nil)
}

// Review godoc
// @Summary Review a leave permission request
// @Description Approve or deny a pending request
// @Tags Permissions
// @Accept json
// @Produce json
// @Param id path string true "Permission ID"
// @Param payload body service.ReviewPermissionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /permissions/{id}/review [post]
func (h *PermissionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReviewPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	permission, err := h.service.Review(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, permission, nil)
}
