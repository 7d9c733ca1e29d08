package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sala-digital/attendance-api/internal/models"
)

// AttendanceRepository handles persistence for attendance events.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const eventColumns = "id, student_id, date, status, class_key, shift_key, recorded_at, created_at"

// Upsert inserts an event or refreshes an existing one for the same
// (student, date). The unique constraint keeps the one-event-per-day
// invariant that every calculator assumes.
func (r *AttendanceRepository) Upsert(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error) {
	now := time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	query := `INSERT INTO attendance_events (id, student_id, date, status, class_key, shift_key, recorded_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_id, date)
DO UPDATE SET status = EXCLUDED.status, recorded_at = EXCLUDED.recorded_at
RETURNING ` + eventColumns
	var stored models.AttendanceEvent
	if err := r.db.GetContext(ctx, &stored, query,
		event.ID, event.StudentID, event.Date, event.Status,
		event.ClassKey, event.ShiftKey, event.RecordedAt, event.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance event: %w", err)
	}
	return &stored, nil
}

// FindByStudentAndDate returns the event for one student on one date, or
// sql.ErrNoRows when none exists.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.AttendanceEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_events WHERE student_id = $1 AND date = $2", eventColumns)
	var event models.AttendanceEvent
	if err := r.db.GetContext(ctx, &event, query, studentID, date); err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns events matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassKey != "" {
		where = append(where, fmt.Sprintf("class_key = $%d", len(args)+1))
		args = append(args, filter.ClassKey)
	}
	if filter.ShiftKey != "" {
		where = append(where, fmt.Sprintf("shift_key = $%d", len(args)+1))
		args = append(args, filter.ShiftKey)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != "" {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM attendance_events WHERE %s ORDER BY date %s, recorded_at %s LIMIT %d OFFSET %d`,
		eventColumns, whereClause, order, order, size, offset)

	var rows []models.AttendanceEvent
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_events WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance events: %w", err)
	}
	return rows, total, nil
}

// ListForStudents returns all events for the given students inside a date
// range, for the aggregate calculators. Results come back grouped by student.
func (r *AttendanceRepository) ListForStudents(ctx context.Context, studentIDs []string, dateFrom, dateTo string) (map[string][]models.AttendanceEvent, error) {
	grouped := make(map[string][]models.AttendanceEvent, len(studentIDs))
	if len(studentIDs) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(
		"SELECT %s FROM attendance_events WHERE student_id IN (?) AND date >= ? AND date <= ? ORDER BY date", eventColumns),
		studentIDs, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("build student events query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []models.AttendanceEvent
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student events: %w", err)
	}
	for _, row := range rows {
		grouped[row.StudentID] = append(grouped[row.StudentID], row)
	}
	return grouped, nil
}
