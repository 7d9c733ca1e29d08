package dto

import "github.com/sala-digital/attendance-api/internal/models"

// DashboardCounts aggregates the roster's verdicts for one date.
type DashboardCounts struct {
	Present       int `json:"present"`
	Late          int `json:"late"`
	Absent        int `json:"absent"`
	Pending       int `json:"pending"`
	NotApplicable int `json:"not_applicable"`
	ConfigMissing int `json:"config_missing"`
	Total         int `json:"total"`
}

// StreakAlert flags a student whose consecutive-absence streak reached the
// configured threshold.
type StreakAlert struct {
	StudentID   string   `json:"student_id"`
	FullName    string   `json:"full_name"`
	ClassKey    string   `json:"class_key"`
	ShiftKey    string   `json:"shift_key"`
	Consecutive int      `json:"consecutive"`
	AbsentDates []string `json:"absent_dates"`
}

// StudentMonthSummary carries a student's month-to-date absence and late
// counts for the dashboard table.
type StudentMonthSummary struct {
	StudentID   string   `json:"student_id"`
	FullName    string   `json:"full_name"`
	ClassKey    string   `json:"class_key"`
	Absences    int      `json:"absences"`
	AbsentDates []string `json:"absent_dates,omitempty"`
	Lates       int      `json:"lates"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	Date         string                      `json:"date"`
	Counts       DashboardCounts             `json:"counts"`
	PerClass     map[string]DashboardCounts  `json:"per_class"`
	StreakAlerts []StreakAlert               `json:"streak_alerts"`
	MonthToDate  []StudentMonthSummary       `json:"month_to_date,omitempty"`
	Statuses     []models.DailyStudentStatus `json:"statuses,omitempty"`
}
