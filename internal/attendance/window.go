package attendance

import (
	"strconv"
	"strings"
	"time"
)

// Window holds the two deadlines derived from a shift start time on a
// specific date. A scan at or before OnTimeDeadline is on time, a scan at or
// before LateCutoff is late, and once LateCutoff passes with no scan the day
// counts as absent.
type Window struct {
	ShiftStart     time.Time
	OnTimeDeadline time.Time
	LateCutoff     time.Time
}

// ResolveWindow anchors the "HH:MM" shift start to date's local midnight and
// derives the on-time and late deadlines. It returns ok=false when the start
// time is absent or malformed; callers must surface that as a configuration
// problem rather than guessing a verdict.
func ResolveWindow(date time.Time, startTime string, graceOverride *int, policy Policy) (Window, bool) {
	policy = policy.normalized()

	hour, minute, ok := parseClock(startTime)
	if !ok {
		return Window{}, false
	}

	grace := policy.GraceMinutes
	if graceOverride != nil && *graceOverride >= 0 {
		grace = *graceOverride
	}

	day := midnight(date, policy.Location)
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	onTime := start.Add(time.Duration(grace) * time.Minute)
	cutoff := onTime.Add(time.Duration(policy.LateWindowMinutes) * time.Minute)

	return Window{ShiftStart: start, OnTimeDeadline: onTime, LateCutoff: cutoff}, true
}

func parseClock(raw string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
