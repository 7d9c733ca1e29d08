package models

import (
	"time"

	"github.com/sala-digital/attendance-api/internal/attendance"
)

// AttendanceEvent is a single recorded capture for a student on a date.
// Date carries only the calendar day (school timezone); RecordedAt is the
// capture instant. At most one event exists per (student, date).
type AttendanceEvent struct {
	ID         string            `db:"id" json:"id"`
	StudentID  string            `db:"student_id" json:"student_id"`
	Date       string            `db:"date" json:"date"`
	Status     attendance.Status `db:"status" json:"status"`
	ClassKey   string            `db:"class_key" json:"class_key"`
	ShiftKey   string            `db:"shift_key" json:"shift_key"`
	RecordedAt time.Time         `db:"recorded_at" json:"recorded_at"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}

// AttendanceEventFilter scopes event listing queries.
type AttendanceEventFilter struct {
	StudentID string
	ClassKey  string
	ShiftKey  string
	Status    *attendance.Status
	DateFrom  string
	DateTo    string
	Page      int
	PageSize  int
	SortOrder string
}

// DailyStudentStatus pairs a roster entry with its computed verdict for one
// date, for the daily check board.
type DailyStudentStatus struct {
	Student
	Date       string            `json:"date"`
	Status     attendance.Status `json:"status"`
	RecordedAt *time.Time        `json:"recorded_at,omitempty"`
}
