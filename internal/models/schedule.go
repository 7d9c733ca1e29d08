package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ShiftMap maps a shift key to its "HH:MM" start time. Stored as JSONB.
type ShiftMap map[string]string

// Value implements driver.Valuer for JSONB columns.
func (m ShiftMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *ShiftMap) Scan(src interface{}) error {
	if src == nil {
		*m = ShiftMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported shift map source %T", src)
	}
	return json.Unmarshal(raw, m)
}

// ClassSchedule holds the per-class study-day set and shift start times.
type ClassSchedule struct {
	ClassKey string `db:"class_key" json:"class_key"`
	Name     string `db:"name" json:"name"`
	// StudyDays lists scheduled weekdays, 0=Sunday..6=Saturday.
	StudyDays pq.Int64Array `db:"study_days" json:"study_days"`
	Shifts    ShiftMap      `db:"shifts" json:"shifts"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// StudyDayInts converts the stored array into plain ints for the engine.
func (c ClassSchedule) StudyDayInts() []int {
	days := make([]int, 0, len(c.StudyDays))
	for _, d := range c.StudyDays {
		days = append(days, int(d))
	}
	return days
}

// Holiday is a single calendar date on which no class holds sessions.
type Holiday struct {
	Date      string    `db:"date" json:"date"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
