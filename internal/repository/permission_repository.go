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

// PermissionRepository handles persistence for leave permission requests.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository constructs the repository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const permissionColumns = "id, student_id, student_name, class_key, shift_key, start_date, duration_days, reason, details, status, reviewed_by, reviewed_at, created_at, updated_at"

// Create inserts a new pending request.
func (r *PermissionRepository) Create(ctx context.Context, permission *models.LeavePermission) error {
	now := time.Now().UTC()
	if permission.ID == "" {
		permission.ID = uuid.NewString()
	}
	if permission.Status == "" {
		permission.Status = models.PermissionPending
	}
	permission.CreatedAt = now
	permission.UpdatedAt = now
	query := `INSERT INTO leave_permissions (id, student_id, student_name, class_key, shift_key, start_date, duration_days, reason, details, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		permission.ID, permission.StudentID, permission.StudentName, permission.ClassKey, permission.ShiftKey,
		permission.StartDate, permission.DurationDays, permission.Reason, permission.Details,
		permission.Status, permission.CreatedAt, permission.UpdatedAt); err != nil {
		return fmt.Errorf("create leave permission: %w", err)
	}
	return nil
}

// GetByID fetches one request.
func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*models.LeavePermission, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_permissions WHERE id = $1", permissionColumns)
	var permission models.LeavePermission
	if err := r.db.GetContext(ctx, &permission, query, id); err != nil {
		return nil, err
	}
	return &permission, nil
}

// List returns requests matching the provided filter.
func (r *PermissionRepository) List(ctx context.Context, filter models.PermissionFilter) ([]models.LeavePermission, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassKey != "" {
		where = append(where, fmt.Sprintf("class_key = $%d", len(args)+1))
		args = append(args, filter.ClassKey)
	}
	if filter.DateFrom != "" {
		where = append(where, fmt.Sprintf("start_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM leave_permissions WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		permissionColumns, whereClause, size, offset)

	var rows []models.LeavePermission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave permissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leave_permissions WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave permissions: %w", err)
	}
	return rows, total, nil
}

// UpdateStatus records a review decision.
func (r *PermissionRepository) UpdateStatus(ctx context.Context, id string, status models.PermissionStatus, reviewedBy string, reviewedAt time.Time) (*models.LeavePermission, error) {
	query := `UPDATE leave_permissions
SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
WHERE id = $1
RETURNING ` + permissionColumns
	var stored models.LeavePermission
	if err := r.db.GetContext(ctx, &stored, query, id, status, reviewedBy, reviewedAt); err != nil {
		return nil, err
	}
	return &stored, nil
}
