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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type classConfigReader interface {
	GetSchedule(ctx context.Context, classKey string) (*models.ClassSchedule, error)
}

// StudentService manages the roster.
type StudentService struct {
	repo      studentRepository
	classes   classConfigReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes classConfigReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, validator: validate, logger: logger, now: time.Now}
}

// CreateStudentRequest is the roster creation payload.
type CreateStudentRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=150"`
	ClassKey     string `json:"class_key" validate:"required"`
	ShiftKey     string `json:"shift_key" validate:"required"`
	GraceMinutes *int   `json:"grace_minutes" validate:"omitempty,min=0,max=120"`
	EnrolledAt   string `json:"enrolled_at" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateStudentRequest carries roster edits. Nil fields are left unchanged.
type UpdateStudentRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,min=2,max=150"`
	ClassKey     *string `json:"class_key"`
	ShiftKey     *string `json:"shift_key"`
	GraceMinutes *int    `json:"grace_minutes" validate:"omitempty,min=0,max=120"`
	Active       *bool   `json:"active"`
}

// validateAssignment rejects class/shift pairs with no configured schedule.
// A student stored against an unknown pair would evaluate to a
// config-missing verdict on every day.
func (s *StudentService) validateAssignment(ctx context.Context, classKey, shiftKey string) error {
	schedule, err := s.classes.GetSchedule(ctx, classKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown class "+classKey)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class schedule")
	}
	if _, ok := schedule.Shifts[shiftKey]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, "class "+classKey+" has no shift "+shiftKey)
	}
	return nil
}

// List returns roster records matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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

// Get fetches one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return student, nil
}

// Create adds a student to the roster.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.validateAssignment(ctx, req.ClassKey, req.ShiftKey); err != nil {
		return nil, err
	}

	student := &models.Student{
		FullName:     req.FullName,
		ClassKey:     req.ClassKey,
		ShiftKey:     req.ShiftKey,
		GraceMinutes: req.GraceMinutes,
		Active:       true,
	}
	if req.EnrolledAt != "" {
		enrolled, err := time.Parse("2006-01-02", req.EnrolledAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrolled_at, expected YYYY-MM-DD")
		}
		student.EnrolledAt = enrolled
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created",
		zap.String("student_id", student.ID),
		zap.String("class_key", student.ClassKey))
	return student, nil
}

// Update applies partial edits to a roster record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.ClassKey != nil {
		student.ClassKey = *req.ClassKey
	}
	if req.ShiftKey != nil {
		student.ShiftKey = *req.ShiftKey
	}
	if req.GraceMinutes != nil {
		student.GraceMinutes = req.GraceMinutes
	}
	if req.Active != nil {
		student.Active = *req.Active
	}

	if req.ClassKey != nil || req.ShiftKey != nil {
		if err := s.validateAssignment(ctx, student.ClassKey, student.ShiftKey); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate soft-deletes a student. Attendance history is retained.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	s.logger.Info("student deactivated", zap.String("student_id", id))
	return nil
}
