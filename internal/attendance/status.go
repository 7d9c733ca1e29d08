package attendance

import "time"

// Status is the verdict for one (subject, date) pair.
type Status string

const (
	// StatusPresent and StatusLate double as the stored event tags.
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	// StatusAbsent marks an applicable school day whose window closed with
	// no recorded event.
	StatusAbsent Status = "absent"
	// StatusPending marks today while its attendance window is still open.
	StatusPending Status = "pending"
	// StatusNotApplicable covers holidays, non-study days, days before
	// enrollment and future dates. Excluded from every aggregate.
	StatusNotApplicable Status = "not_applicable"
	// StatusConfigMissing signals that no shift start time could be
	// resolved for the subject's class/shift. Never folded into present or
	// absent; the integrating application decides its own policy.
	StatusConfigMissing Status = "config_missing"
	// StatusUnknown covers events carrying an unrecognised stored tag.
	StatusUnknown Status = "unknown"
)

// Countable reports whether the status participates in absence aggregates.
func (s Status) Countable() bool {
	return s == StatusPresent || s == StatusLate || s == StatusAbsent
}

// Evaluate produces the daily verdict for one subject and date.
//
// A recorded event always wins over inference. With no event the date must be
// an applicable school day, the shift window must resolve, and the verdict is
// then absent for past days, and absent or pending for today depending on
// whether now has passed the late cutoff. Future dates are not applicable.
func Evaluate(sub Subject, date time.Time, event *Event, schedules ScheduleSet, holidays DaySet, policy Policy, now time.Time) Status {
	if event != nil {
		switch event.Status {
		case StatusPresent:
			return StatusPresent
		case StatusLate:
			return StatusLate
		default:
			return StatusUnknown
		}
	}

	policy = policy.normalized()
	day := midnight(date, policy.Location)
	today := midnight(now, policy.Location)

	if day.After(today) {
		return StatusNotApplicable
	}

	schedule := schedules[sub.ClassKey]
	if !IsSchoolDay(day, schedule.StudyDays, holidays) {
		return StatusNotApplicable
	}
	if !sub.applicableFor(day, policy.Location) {
		return StatusNotApplicable
	}

	window, ok := ResolveWindow(day, schedule.Shifts[sub.ShiftKey], sub.GraceMinutes, policy)
	if !ok {
		return StatusConfigMissing
	}

	if day.Before(today) {
		return StatusAbsent
	}
	if now.After(window.LateCutoff) {
		return StatusAbsent
	}
	return StatusPending
}

// ScanVerdict classifies a capture taken at scannedAt against the window of
// its date. It returns ok=false when the window cannot be resolved.
func ScanVerdict(sub Subject, scannedAt time.Time, schedules ScheduleSet, policy Policy) (Status, bool) {
	policy = policy.normalized()
	schedule, found := schedules[sub.ClassKey]
	if !found {
		return StatusConfigMissing, false
	}
	window, ok := ResolveWindow(scannedAt, schedule.Shifts[sub.ShiftKey], sub.GraceMinutes, policy)
	if !ok {
		return StatusConfigMissing, false
	}
	if !scannedAt.After(window.OnTimeDeadline) {
		return StatusPresent, true
	}
	if !scannedAt.After(window.LateCutoff) {
		return StatusLate, true
	}
	return StatusAbsent, true
}
