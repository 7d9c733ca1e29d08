package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

type permissionRepository interface {
	Create(ctx context.Context, permission *models.LeavePermission) error
	GetByID(ctx context.Context, id string) (*models.LeavePermission, error)
	List(ctx context.Context, filter models.PermissionFilter) ([]models.LeavePermission, int, error)
	UpdateStatus(ctx context.Context, id string, status models.PermissionStatus, reviewedBy string, reviewedAt time.Time) (*models.LeavePermission, error)
}

// PermissionService manages leave permission requests and their review flow.
type PermissionService struct {
	repo      permissionRepository
	roster    rosterRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPermissionService constructs the permission service.
func NewPermissionService(repo permissionRepository, roster rosterRepository, validate *validator.Validate, logger *zap.Logger) *PermissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{repo: repo, roster: roster, validator: validate, logger: logger, now: time.Now}
}

// CreatePermissionRequest is the public leave request payload.
type CreatePermissionRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	DurationDays int    `json:"duration_days" validate:"required,min=1,max=30"`
	Reason       string `json:"reason" validate:"required,min=2,max=100"`
	Details      string `json:"details" validate:"max=1000"`
}

// ReviewPermissionRequest records a staff decision.
type ReviewPermissionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved denied"`
}

// Create files a new pending leave request. The student's name and class are
// denormalised onto the row so review lists render without a join.
func (s *PermissionService) Create(ctx context.Context, req CreatePermissionRequest) (*models.LeavePermission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}

	student, err := s.roster.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not active")
	}

	overlap, err := s.hasOverlap(ctx, student.ID, req.StartDate, req.DurationDays)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an open request already covers part of this period")
	}

	permission := &models.LeavePermission{
		StudentID:    student.ID,
		StudentName:  student.FullName,
		ClassKey:     student.ClassKey,
		ShiftKey:     student.ShiftKey,
		StartDate:    req.StartDate,
		DurationDays: req.DurationDays,
		Reason:       req.Reason,
		Details:      req.Details,
		Status:       models.PermissionPending,
	}
	if err := s.repo.Create(ctx, permission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create permission request")
	}
	s.logger.Info("leave permission filed",
		zap.String("permission_id", permission.ID),
		zap.String("student_id", student.ID),
		zap.String("start_date", req.StartDate))
	return permission, nil
}

// hasOverlap reports whether a pending or approved request for the student
// already covers any day of the given window. Denied requests do not block.
func (s *PermissionService) hasOverlap(ctx context.Context, studentID, startDate string, durationDays int) (bool, error) {
	existing, _, err := s.repo.List(ctx, models.PermissionFilter{StudentID: studentID, PageSize: 200})
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing requests")
	}

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end := start.AddDate(0, 0, durationDays-1)

	for _, row := range existing {
		if row.Status == models.PermissionDenied {
			continue
		}
		otherStart, err := time.Parse("2006-01-02", row.StartDate)
		if err != nil {
			continue
		}
		otherEnd := otherStart.AddDate(0, 0, row.DurationDays-1)
		if !start.After(otherEnd) && !otherStart.After(end) {
			return true, nil
		}
	}
	return false, nil
}

// Get fetches one request.
func (s *PermissionService) Get(ctx context.Context, id string) (*models.LeavePermission, error) {
	permission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch permission request")
	}
	return permission, nil
}

// List returns requests matching the filter.
func (s *PermissionService) List(ctx context.Context, filter models.PermissionFilter) ([]models.LeavePermission, *models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permission requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Review applies an approve or deny decision. Only pending requests can be
// reviewed; repeated decisions conflict.
func (s *PermissionService) Review(ctx context.Context, id, reviewerID string, req ReviewPermissionRequest) (*models.LeavePermission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.PermissionPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "permission request already reviewed")
	}

	stored, err := s.repo.UpdateStatus(ctx, id, models.PermissionStatus(req.Status), reviewerID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permission request")
	}
	s.logger.Info("leave permission reviewed",
		zap.String("permission_id", id),
		zap.String("status", req.Status),
		zap.String("reviewed_by", reviewerID))
	return stored, nil
}
