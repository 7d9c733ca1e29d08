package dto

// MonthlyReportRow summarises one student's month.
type MonthlyReportRow struct {
	StudentID      string   `json:"student_id"`
	FullName       string   `json:"full_name"`
	ClassKey       string   `json:"class_key"`
	ShiftKey       string   `json:"shift_key"`
	ApplicableDays int      `json:"applicable_days"`
	AbsenceCount   int      `json:"absence_count"`
	AbsentDates    []string `json:"absent_dates,omitempty"`
	LateCount      int      `json:"late_count"`
	LateDates      []string `json:"late_dates,omitempty"`
	// ConfigMissing flags that today's verdict could not be derived for
	// this student's class/shift; the row's counts exclude today.
	ConfigMissing bool `json:"config_missing,omitempty"`
}

// MonthlyReportResponse is the monthly report payload.
type MonthlyReportResponse struct {
	Month    string             `json:"month"`
	ClassKey string             `json:"class_key,omitempty"`
	ShiftKey string             `json:"shift_key,omitempty"`
	Rows     []MonthlyReportRow `json:"rows"`
}
