package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

type attendanceEventRepository interface {
	Upsert(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error)
	FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.AttendanceEvent, error)
	List(ctx context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, int, error)
	ListForStudents(ctx context.Context, studentIDs []string, dateFrom, dateTo string) (map[string][]models.AttendanceEvent, error)
}

type rosterRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type engineConfigSource interface {
	EngineConfig(ctx context.Context) (attendance.ScheduleSet, attendance.DaySet, error)
}

// AttendanceService coordinates scan capture, manual marking and daily
// status evaluation. All verdict derivation is delegated to the attendance
// engine; this layer only fetches inputs and persists outcomes.
type AttendanceService struct {
	events    attendanceEventRepository
	roster    rosterRepository
	config    engineConfigSource
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	policy    attendance.Policy
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(events attendanceEventRepository, roster rosterRepository, config engineConfigSource, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, policy attendance.Policy) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		events:    events,
		roster:    roster,
		config:    config,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		policy:    policy,
		now:       time.Now,
	}
}

func subjectFor(student *models.Student) attendance.Subject {
	return attendance.Subject{
		ClassKey:     student.ClassKey,
		ShiftKey:     student.ShiftKey,
		EnrolledAt:   student.EnrolledAt,
		GraceMinutes: student.GraceMinutes,
	}
}

func engineEvents(rows []models.AttendanceEvent) []attendance.Event {
	events := make([]attendance.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, attendance.Event{Date: row.Date, Status: row.Status, RecordedAt: row.RecordedAt})
	}
	return events
}

// ScanRequest is the payload produced by the QR scanning flow after the code
// has been decoded client-side.
type ScanRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// ScanResult reports the outcome of one capture.
type ScanResult struct {
	Event           *models.AttendanceEvent `json:"event"`
	Verdict         attendance.Status       `json:"verdict"`
	AlreadyRecorded bool                    `json:"already_recorded"`
}

// RecordScan classifies a scan against the student's shift window and stores
// the event. Scanning twice on the same day is idempotent: the stored event
// wins and no second row is written.
func (s *AttendanceService) RecordScan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scan payload")
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

	now := s.now().In(s.policy.Location)
	dateKey := attendance.DateKey(now)

	existing, err := s.events.FindByStudentAndDate(ctx, student.ID, dateKey)
	if err == nil {
		return &ScanResult{Event: existing, Verdict: existing.Status, AlreadyRecorded: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing event")
	}

	schedules, _, err := s.config.EngineConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configuration")
	}

	verdict, ok := attendance.ScanVerdict(subjectFor(student), now, schedules, s.policy)
	if !ok {
		s.logger.Warn("scan hit missing shift config",
			zap.String("student_id", student.ID),
			zap.String("class_key", student.ClassKey),
			zap.String("shift_key", student.ShiftKey))
		s.metrics.RecordScan(string(attendance.StatusConfigMissing))
		return nil, appErrors.Clone(appErrors.ErrConfigMissing, "no shift start time configured for "+student.ClassKey+"/"+student.ShiftKey)
	}
	if verdict == attendance.StatusAbsent {
		s.metrics.RecordScan("rejected")
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, "attendance window for "+dateKey+" already closed")
	}

	stored, err := s.events.Upsert(ctx, &models.AttendanceEvent{
		StudentID:  student.ID,
		Date:       dateKey,
		Status:     verdict,
		ClassKey:   student.ClassKey,
		ShiftKey:   student.ShiftKey,
		RecordedAt: now,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance event")
	}

	s.metrics.RecordScan(string(verdict))
	return &ScanResult{Event: stored, Verdict: verdict}, nil
}

// MarkRequest is a manual staff correction for one student and date.
type MarkRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=present late"`
}

// Mark stores a manual attendance correction. Future dates are rejected.
func (s *AttendanceService) Mark(ctx context.Context, req MarkRequest) (*models.AttendanceEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}

	now := s.now().In(s.policy.Location)
	if req.Date > attendance.DateKey(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot mark attendance for a future date")
	}

	student, err := s.roster.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	stored, err := s.events.Upsert(ctx, &models.AttendanceEvent{
		StudentID:  student.ID,
		Date:       req.Date,
		Status:     attendance.Status(req.Status),
		ClassKey:   student.ClassKey,
		ShiftKey:   student.ShiftKey,
		RecordedAt: now,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance event")
	}
	return stored, nil
}

// EventListRequest filters event listing.
type EventListRequest struct {
	StudentID string  `json:"student_id"`
	ClassKey  string  `json:"class_key"`
	ShiftKey  string  `json:"shift_key"`
	Status    *string `json:"status" validate:"omitempty,oneof=present late"`
	DateFrom  string  `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string  `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Page      int     `json:"page"`
	PageSize  int     `json:"page_size"`
	SortOrder string  `json:"sort_order"`
}

// ListEvents returns paginated attendance events.
func (s *AttendanceService) ListEvents(ctx context.Context, req EventListRequest) ([]models.AttendanceEvent, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	var status *attendance.Status
	if req.Status != nil {
		st := attendance.Status(*req.Status)
		status = &st
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 100
	}
	rows, total, err := s.events.List(ctx, models.AttendanceEventFilter{
		StudentID: req.StudentID,
		ClassKey:  req.ClassKey,
		ShiftKey:  req.ShiftKey,
		Status:    status,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Page:      page,
		PageSize:  size,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// DailyCheck evaluates every rostered student of a class (optionally one
// shift) for the given date. Dates after today are rejected.
func (s *AttendanceService) DailyCheck(ctx context.Context, classKey, shiftKey, date string) ([]models.DailyStudentStatus, error) {
	if classKey == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classKey is required")
	}
	day, err := time.ParseInLocation("2006-01-02", date, s.policy.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	now := s.now().In(s.policy.Location)
	if date > attendance.DateKey(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot check a future date")
	}

	active := true
	students, _, err := s.roster.List(ctx, models.StudentFilter{ClassKey: classKey, ShiftKey: shiftKey, Active: &active, PageSize: 200})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	eventsByStudent, err := s.events.ListForStudents(ctx, ids, date, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}

	schedules, holidays, err := s.config.EngineConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configuration")
	}

	statuses := make([]models.DailyStudentStatus, 0, len(students))
	for _, student := range students {
		var event *attendance.Event
		var recordedAt *time.Time
		if rows := eventsByStudent[student.ID]; len(rows) > 0 {
			converted := engineEvents(rows[:1])
			event = &converted[0]
			ts := rows[0].RecordedAt
			recordedAt = &ts
		}
		verdict := attendance.Evaluate(subjectFor(&student), day, event, schedules, holidays, s.policy, now)
		statuses = append(statuses, models.DailyStudentStatus{
			Student:    student,
			Date:       date,
			Status:     verdict,
			RecordedAt: recordedAt,
		})
	}
	return statuses, nil
}

// StudentHistory returns a student's events inside a date range together
// with the derived verdict for each school day in the range.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID, dateFrom, dateTo string) ([]models.DailyStudentStatus, error) {
	student, err := s.roster.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	from, err := time.ParseInLocation("2006-01-02", dateFrom, s.policy.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_from, expected YYYY-MM-DD")
	}
	to, err := time.ParseInLocation("2006-01-02", dateTo, s.policy.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_to, expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_to precedes date_from")
	}

	eventsByStudent, err := s.events.ListForStudents(ctx, []string{student.ID}, dateFrom, dateTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	byDate := make(map[string]models.AttendanceEvent)
	for _, row := range eventsByStudent[student.ID] {
		byDate[row.Date] = row
	}

	schedules, holidays, err := s.config.EngineConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configuration")
	}

	now := s.now().In(s.policy.Location)
	today := attendance.DateKey(now)

	var history []models.DailyStudentStatus
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := attendance.DateKey(day)
		if key > today {
			break
		}
		var event *attendance.Event
		var recordedAt *time.Time
		if row, ok := byDate[key]; ok {
			event = &attendance.Event{Date: row.Date, Status: row.Status, RecordedAt: row.RecordedAt}
			ts := row.RecordedAt
			recordedAt = &ts
		}
		verdict := attendance.Evaluate(subjectFor(student), day, event, schedules, holidays, s.policy, now)
		if verdict == attendance.StatusNotApplicable {
			continue
		}
		history = append(history, models.DailyStudentStatus{
			Student:    *student,
			Date:       key,
			Status:     verdict,
			RecordedAt: recordedAt,
		})
	}
	return history, nil
}
