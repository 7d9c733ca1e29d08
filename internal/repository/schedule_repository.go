package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/models"
)

// ScheduleRepository handles persistence for class schedules and holidays.
// Both sets are small (tens of rows) and loaded wholesale.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = "class_key, name, study_days, shifts, created_at, updated_at"

// ListSchedules returns every class schedule.
func (r *ScheduleRepository) ListSchedules(ctx context.Context) ([]models.ClassSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM class_schedules ORDER BY class_key", scheduleColumns)
	var rows []models.ClassSchedule
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}
	return rows, nil
}

// GetSchedule fetches a single class schedule.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, classKey string) (*models.ClassSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM class_schedules WHERE class_key = $1", scheduleColumns)
	var schedule models.ClassSchedule
	if err := r.db.GetContext(ctx, &schedule, query, classKey); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// UpsertSchedule creates or replaces a class schedule.
func (r *ScheduleRepository) UpsertSchedule(ctx context.Context, schedule *models.ClassSchedule) (*models.ClassSchedule, error) {
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	query := `INSERT INTO class_schedules (class_key, name, study_days, shifts, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (class_key)
DO UPDATE SET name = EXCLUDED.name, study_days = EXCLUDED.study_days, shifts = EXCLUDED.shifts, updated_at = EXCLUDED.updated_at
RETURNING ` + scheduleColumns
	var stored models.ClassSchedule
	if err := r.db.GetContext(ctx, &stored, query,
		schedule.ClassKey, schedule.Name, schedule.StudyDays, schedule.Shifts,
		schedule.CreatedAt, schedule.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert class schedule: %w", err)
	}
	return &stored, nil
}

// ListHolidays returns the full holiday calendar.
func (r *ScheduleRepository) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	query := "SELECT date, name, created_at FROM holidays ORDER BY date"
	var rows []models.Holiday
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return rows, nil
}

// CreateHoliday adds one date to the holiday calendar.
func (r *ScheduleRepository) CreateHoliday(ctx context.Context, holiday *models.Holiday) error {
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO holidays (date, name, created_at) VALUES ($1, $2, $3)
ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.db.ExecContext(ctx, query, holiday.Date, holiday.Name, holiday.CreatedAt); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes one date from the holiday calendar.
func (r *ScheduleRepository) DeleteHoliday(ctx context.Context, date string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM holidays WHERE date = $1", date); err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return nil
}

// EngineConfig loads the schedule and holiday tables into the engine's
// in-memory shapes, the configuration source every calculator consumes.
func (r *ScheduleRepository) EngineConfig(ctx context.Context) (attendance.ScheduleSet, attendance.DaySet, error) {
	schedules, err := r.ListSchedules(ctx)
	if err != nil {
		return nil, nil, err
	}
	holidays, err := r.ListHolidays(ctx)
	if err != nil {
		return nil, nil, err
	}

	set := make(attendance.ScheduleSet, len(schedules))
	for _, s := range schedules {
		set[s.ClassKey] = attendance.Schedule{StudyDays: s.StudyDayInts(), Shifts: s.Shifts}
	}
	dates := make([]string, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return set, attendance.NewDaySet(dates...), nil
}
