package attendance

import "time"

// Policy carries the timing rules applied when deriving attendance verdicts.
// Callers build one at startup (normally from pkg/config) and pass it into
// every calculation; the package holds no mutable defaults of its own.
type Policy struct {
	// GraceMinutes is the window after shift start during which a scan
	// still counts as on time.
	GraceMinutes int
	// LateWindowMinutes is the window after the grace period during which
	// a scan counts as late. Once it elapses with no scan the day is absent.
	LateWindowMinutes int
	// LookbackDays bounds the consecutive-absence walk.
	LookbackDays int
	// Location is the school's timezone. All date arithmetic is anchored
	// to local midnight in this location.
	Location *time.Location
}

const (
	defaultGraceMinutes      = 15
	defaultLateWindowMinutes = 90
	defaultLookbackDays      = 14
)

func (p Policy) normalized() Policy {
	if p.GraceMinutes <= 0 {
		p.GraceMinutes = defaultGraceMinutes
	}
	if p.LateWindowMinutes <= 0 {
		p.LateWindowMinutes = defaultLateWindowMinutes
	}
	if p.LookbackDays <= 0 {
		p.LookbackDays = defaultLookbackDays
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	return p
}

// Subject identifies the scheduling attributes of one student. It is the
// engine-facing projection of a roster record; repositories map their rows
// into it before calling any calculator.
type Subject struct {
	ClassKey string
	ShiftKey string
	// EnrolledAt marks when the student joined. Days on or before the
	// enrollment day are never applicable.
	EnrolledAt time.Time
	// GraceMinutes overrides Policy.GraceMinutes for this subject when set.
	GraceMinutes *int
}

// Schedule describes when one class holds sessions.
type Schedule struct {
	// StudyDays lists scheduled weekdays, 0=Sunday through 6=Saturday.
	StudyDays []int
	// Shifts maps a shift key to its "HH:MM" start time.
	Shifts map[string]string
}

// ScheduleSet maps class keys to their schedules.
type ScheduleSet map[string]Schedule

// Event is a single recorded attendance capture. Date uses the YYYY-MM-DD
// form in the school timezone; Status carries the stored tag, not a derived
// verdict.
type Event struct {
	Date       string
	Status     Status
	RecordedAt time.Time
}

// DateKey renders t as the YYYY-MM-DD key used across the engine.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// midnight truncates t to local midnight in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// applicableFor reports whether date falls strictly after the subject's
// enrollment day. The enrollment day itself is excluded.
func (s Subject) applicableFor(date time.Time, loc *time.Location) bool {
	if s.EnrolledAt.IsZero() {
		return true
	}
	return midnight(s.EnrolledAt, loc).Before(midnight(date, loc))
}

// attendedDates collects the date keys of events whose stored tag marks the
// subject as having shown up. Events with unparseable dates are ignored.
func attendedDates(events []Event) map[string]struct{} {
	attended := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.Status != StatusPresent && ev.Status != StatusLate {
			continue
		}
		if _, err := time.Parse("2006-01-02", ev.Date); err != nil {
			continue
		}
		attended[ev.Date] = struct{}{}
	}
	return attended
}
