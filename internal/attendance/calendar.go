package attendance

import "time"

// DaySet is a set of YYYY-MM-DD date keys, used for the holiday calendar.
type DaySet map[string]struct{}

// NewDaySet builds a DaySet from date keys. Malformed entries are dropped.
func NewDaySet(dates ...string) DaySet {
	set := make(DaySet, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			continue
		}
		set[d] = struct{}{}
	}
	return set
}

// Has reports whether the calendar day of t belongs to the set.
func (s DaySet) Has(t time.Time) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[DateKey(t)]
	return ok
}

// IsSchoolDay reports whether date is a session day for a class that studies
// on the given weekdays (0=Sunday..6=Saturday). Holidays always win, and a
// class with no configured study days never has a school day.
func IsSchoolDay(date time.Time, studyDays []int, holidays DaySet) bool {
	if holidays.Has(date) {
		return false
	}
	weekday := int(date.Weekday())
	for _, d := range studyDays {
		if d == weekday {
			return true
		}
	}
	return false
}
