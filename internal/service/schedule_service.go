package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

type scheduleRepository interface {
	ListSchedules(ctx context.Context) ([]models.ClassSchedule, error)
	GetSchedule(ctx context.Context, classKey string) (*models.ClassSchedule, error)
	UpsertSchedule(ctx context.Context, schedule *models.ClassSchedule) (*models.ClassSchedule, error)
	ListHolidays(ctx context.Context) ([]models.Holiday, error)
	CreateHoliday(ctx context.Context, holiday *models.Holiday) error
	DeleteHoliday(ctx context.Context, date string) error
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ScheduleService manages class schedules and the holiday calendar. Writes
// invalidate the dashboard cache since every verdict depends on this data.
type ScheduleService struct {
	repo      scheduleRepository
	dashboard *DashboardService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo scheduleRepository, dashboard *DashboardService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, dashboard: dashboard, validator: validate, logger: logger}
}

// UpsertScheduleRequest creates or replaces one class schedule.
type UpsertScheduleRequest struct {
	ClassKey  string            `json:"class_key" validate:"required,min=1,max=50"`
	Name      string            `json:"name" validate:"required,min=1,max=150"`
	StudyDays []int             `json:"study_days" validate:"max=7,dive,min=0,max=6"`
	Shifts    map[string]string `json:"shifts" validate:"required,min=1"`
}

// HolidayRequest adds one date to the holiday calendar.
type HolidayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,min=1,max=150"`
}

// ListSchedules returns every class schedule.
func (s *ScheduleService) ListSchedules(ctx context.Context) ([]models.ClassSchedule, error) {
	rows, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return rows, nil
}

// GetSchedule fetches one class schedule.
func (s *ScheduleService) GetSchedule(ctx context.Context, classKey string) (*models.ClassSchedule, error) {
	schedule, err := s.repo.GetSchedule(ctx, classKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch schedule")
	}
	return schedule, nil
}

// UpsertSchedule validates and stores a class schedule. An empty study-day
// set is allowed and means the class never meets.
func (s *ScheduleService) UpsertSchedule(ctx context.Context, req UpsertScheduleRequest) (*models.ClassSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	for key, start := range req.Shifts {
		if !clockPattern.MatchString(start) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "shift "+key+" has invalid start time, expected HH:MM")
		}
	}
	seen := make(map[int]bool, len(req.StudyDays))
	days := make(pq.Int64Array, 0, len(req.StudyDays))
	for _, d := range req.StudyDays {
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, int64(d))
	}

	stored, err := s.repo.UpsertSchedule(ctx, &models.ClassSchedule{
		ClassKey:  req.ClassKey,
		Name:      req.Name,
		StudyDays: days,
		Shifts:    models.ShiftMap(req.Shifts),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
	}

	s.dashboard.InvalidateCache(ctx)
	s.logger.Info("class schedule stored", zap.String("class_key", stored.ClassKey))
	return stored, nil
}

// ListHolidays returns the full holiday calendar.
func (s *ScheduleService) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	rows, err := s.repo.ListHolidays(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return rows, nil
}

// CreateHoliday adds one date to the calendar.
func (s *ScheduleService) CreateHoliday(ctx context.Context, req HolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	holiday := &models.Holiday{Date: req.Date, Name: req.Name}
	if err := s.repo.CreateHoliday(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store holiday")
	}
	s.dashboard.InvalidateCache(ctx)
	return holiday, nil
}

// DeleteHoliday removes one date from the calendar.
func (s *ScheduleService) DeleteHoliday(ctx context.Context, date string) error {
	if err := s.repo.DeleteHoliday(ctx, date); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	s.dashboard.InvalidateCache(ctx)
	return nil
}
