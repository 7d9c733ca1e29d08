package models

import "time"

// Student represents a learner registered in the school roster.
type Student struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	ClassKey string `db:"class_key" json:"class_key"`
	ShiftKey string `db:"shift_key" json:"shift_key"`
	// GraceMinutes overrides the global on-time grace period when set.
	GraceMinutes *int      `db:"grace_minutes" json:"grace_minutes,omitempty"`
	EnrolledAt   time.Time `db:"enrolled_at" json:"enrolled_at"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassKey  string
	ShiftKey  string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
