package models

import "time"

// PermissionStatus tracks the review state of a leave request.
type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "pending"
	PermissionApproved PermissionStatus = "approved"
	PermissionDenied   PermissionStatus = "denied"
)

// Valid reports whether the status is a supported value.
func (s PermissionStatus) Valid() bool {
	switch s {
	case PermissionPending, PermissionApproved, PermissionDenied:
		return true
	default:
		return false
	}
}

// LeavePermission is a request to excuse a student for a span of days.
type LeavePermission struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	StudentName  string           `db:"student_name" json:"student_name"`
	ClassKey     string           `db:"class_key" json:"class_key"`
	ShiftKey     string           `db:"shift_key" json:"shift_key"`
	StartDate    string           `db:"start_date" json:"start_date"`
	DurationDays int              `db:"duration_days" json:"duration_days"`
	Reason       string           `db:"reason" json:"reason"`
	Details      string           `db:"details" json:"details"`
	Status       PermissionStatus `db:"status" json:"status"`
	ReviewedBy   *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// PermissionFilter scopes permission listing queries.
type PermissionFilter struct {
	Status    *PermissionStatus
	StudentID string
	ClassKey  string
	DateFrom  string
	DateTo    string
	Page      int
	PageSize  int
}
