package attendance

import "time"

// StreakResult reports a consecutive-absence walk.
type StreakResult struct {
	Count int
	// Dates lists the counted absence days, most recent first.
	Dates []string
	// ConfigMissing is set when today's window could not be resolved. The
	// walk stops there, matching an attended day, so misconfiguration never
	// inflates a streak.
	ConfigMissing bool
}

// ConsecutiveAbsences walks backward from today, one calendar day at a time,
// counting applicable school days with no present/late event. The walk stops
// at the first attended day, at the enrollment boundary, or after
// policy.LookbackDays iterations. Today is skipped while its window is still
// open: it neither counts as absent nor breaks a streak begun yesterday.
func ConsecutiveAbsences(sub Subject, events []Event, schedules ScheduleSet, holidays DaySet, policy Policy, now time.Time) StreakResult {
	policy = policy.normalized()
	today := midnight(now, policy.Location)
	attended := attendedDates(events)
	schedule := schedules[sub.ClassKey]

	var result StreakResult
	for i := 0; i < policy.LookbackDays; i++ {
		day := today.AddDate(0, 0, -i)

		if !sub.applicableFor(day, policy.Location) {
			break
		}
		if !IsSchoolDay(day, schedule.StudyDays, holidays) {
			continue
		}

		key := DateKey(day)
		if i == 0 {
			window, ok := ResolveWindow(day, schedule.Shifts[sub.ShiftKey], sub.GraceMinutes, policy)
			if !ok {
				result.ConfigMissing = true
				break
			}
			if !now.After(window.LateCutoff) {
				// Window still open; today is not yet decidable.
				continue
			}
		}

		if _, ok := attended[key]; ok {
			break
		}
		result.Count++
		result.Dates = append(result.Dates, key)
	}
	return result
}

// MonthlyResult reports absence aggregation for one month.
type MonthlyResult struct {
	Count          int
	AbsentDates    []string
	ApplicableDays int
	// ConfigMissing is set when today fell inside the month but its window
	// could not be resolved; that day is excluded from both counts.
	ConfigMissing bool
}

// MonthlyAbsences enumerates the calendar days of year/month up to the
// month's end, or up to today when the target month is the current one, and
// counts applicable school days with no present/late event. Today is excluded
// from both the applicable-day and absence counts while its window is open.
func MonthlyAbsences(sub Subject, events []Event, year int, month time.Month, schedules ScheduleSet, holidays DaySet, policy Policy, now time.Time) MonthlyResult {
	policy = policy.normalized()
	today := midnight(now, policy.Location)
	first := time.Date(year, month, 1, 0, 0, 0, 0, policy.Location)

	lastDay := first.AddDate(0, 1, -1)
	if !first.After(today) && !lastDay.Before(today) {
		lastDay = today
	}

	var result MonthlyResult
	if first.After(today) {
		return result
	}

	attended := attendedDates(events)
	schedule := schedules[sub.ClassKey]

	for day := first; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if !IsSchoolDay(day, schedule.StudyDays, holidays) {
			continue
		}
		if !sub.applicableFor(day, policy.Location) {
			continue
		}

		key := DateKey(day)
		if day.Equal(today) {
			window, ok := ResolveWindow(day, schedule.Shifts[sub.ShiftKey], sub.GraceMinutes, policy)
			if !ok {
				result.ConfigMissing = true
				continue
			}
			if !now.After(window.LateCutoff) {
				// Pending; not yet decidable either way.
				continue
			}
		}

		result.ApplicableDays++
		if _, ok := attended[key]; !ok {
			result.Count++
			result.AbsentDates = append(result.AbsentDates, key)
		}
	}
	return result
}

// LateResult reports late-arrival aggregation for one month.
type LateResult struct {
	Count int
	Dates []string
}

// MonthlyLates counts late-tagged events inside year/month that fall on or
// after the subject's enrollment day. No school-day logic applies since only
// recorded events are considered; events with malformed dates are skipped.
func MonthlyLates(sub Subject, events []Event, year int, month time.Month, policy Policy, now time.Time) LateResult {
	policy = policy.normalized()
	today := midnight(now, policy.Location)
	first := time.Date(year, month, 1, 0, 0, 0, 0, policy.Location)

	lastDay := first.AddDate(0, 1, -1)
	if !first.After(today) && !lastDay.Before(today) {
		lastDay = today
	}

	var result LateResult
	if first.After(today) {
		return result
	}

	enrollment := midnight(sub.EnrolledAt, policy.Location)
	for _, ev := range events {
		if ev.Status != StatusLate {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", ev.Date, policy.Location)
		if err != nil {
			continue
		}
		if day.Before(first) || day.After(lastDay) {
			continue
		}
		if !sub.EnrolledAt.IsZero() && day.Before(enrollment) {
			continue
		}
		result.Count++
		result.Dates = append(result.Dates, ev.Date)
	}
	return result
}
