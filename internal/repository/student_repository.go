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

// StudentRepository handles persistence for roster records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, full_name, class_key, shift_key, grace_minutes, enrolled_at, active, created_at, updated_at"

// List returns students matching the provided filter.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("full_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ClassKey != "" {
		where = append(where, fmt.Sprintf("class_key = $%d", len(args)+1))
		args = append(args, filter.ClassKey)
	}
	if filter.ShiftKey != "" {
		where = append(where, fmt.Sprintf("shift_key = $%d", len(args)+1))
		args = append(args, filter.ShiftKey)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"name":        "full_name",
		"class":       "class_key",
		"enrolled_at": "enrolled_at",
		"created_at":  "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		studentColumns, whereClause, sortColumn, order, size, offset)

	var rows []models.Student
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return rows, total, nil
}

// GetByID fetches one student.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new roster record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.EnrolledAt.IsZero() {
		student.EnrolledAt = now
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	query := `INSERT INTO students (id, full_name, class_key, shift_key, grace_minutes, enrolled_at, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		student.ID, student.FullName, student.ClassKey, student.ShiftKey,
		student.GraceMinutes, student.EnrolledAt, student.Active, student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists profile edits.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	query := `UPDATE students
SET full_name = $2, class_key = $3, shift_key = $4, grace_minutes = $5, active = $6, updated_at = $7
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		student.ID, student.FullName, student.ClassKey, student.ShiftKey,
		student.GraceMinutes, student.Active, student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update student %s: no rows affected", student.ID)
	}
	return nil
}

// Deactivate soft-deletes a student from the roster.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE students SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}
