package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testSchedules() ScheduleSet {
	return ScheduleSet{
		"12A": {
			StudyDays: []int{1, 2, 3, 4, 5}, // Mon-Fri
			Shifts:    map[string]string{"morning": "07:00", "afternoon": "13:00"},
		},
	}
}

func testSubject() Subject {
	return Subject{
		ClassKey:   "12A",
		ShiftKey:   "morning",
		EnrolledAt: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateRecordedEventAlwaysWins(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	sub := testSubject()

	// Even on a Sunday (not a school day) a stored event decides the verdict.
	sunday := date(t, "2024-03-10")
	status := Evaluate(sub, sunday, &Event{Date: "2024-03-10", Status: StatusPresent}, testSchedules(), nil, testPolicy(), now)
	assert.Equal(t, StatusPresent, status)

	status = Evaluate(sub, sunday, &Event{Date: "2024-03-10", Status: StatusLate}, testSchedules(), nil, testPolicy(), now)
	assert.Equal(t, StatusLate, status)

	status = Evaluate(sub, sunday, &Event{Date: "2024-03-10", Status: "excused"}, testSchedules(), nil, testPolicy(), now)
	assert.Equal(t, StatusUnknown, status)
}

func TestEvaluatePastSchoolDayWithoutEventIsAbsent(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	status := Evaluate(testSubject(), date(t, "2024-03-11"), nil, testSchedules(), nil, testPolicy(), now)
	assert.Equal(t, StatusAbsent, status)
}

func TestEvaluateNonApplicableDays(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	schedules := testSchedules()
	holidays := NewDaySet("2024-03-11")

	cases := []struct {
		name string
		sub  Subject
		day  string
	}{
		{"holiday", testSubject(), "2024-03-11"},
		{"weekend", testSubject(), "2024-03-10"},
		{"before enrollment", Subject{ClassKey: "12A", ShiftKey: "morning", EnrolledAt: date(t, "2024-03-20")}, "2024-03-08"},
		{"enrollment day itself", Subject{ClassKey: "12A", ShiftKey: "morning", EnrolledAt: date(t, "2024-03-08")}, "2024-03-08"},
		{"unknown class", Subject{ClassKey: "ghost", ShiftKey: "morning"}, "2024-03-11"},
		{"future date", testSubject(), "2024-03-13"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := Evaluate(tc.sub, date(t, tc.day), nil, schedules, holidays, testPolicy(), now)
			assert.Equal(t, StatusNotApplicable, status)
		})
	}
}

func TestEvaluateMissingShiftConfig(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	sub := testSubject()
	sub.ShiftKey = "evening"

	status := Evaluate(sub, date(t, "2024-03-11"), nil, testSchedules(), nil, testPolicy(), now)
	assert.Equal(t, StatusConfigMissing, status)
}

func TestEvaluateTodayWindow(t *testing.T) {
	// Shift 07:00, grace 15, late window 90: cutoff 08:45.
	day := date(t, "2024-03-12")

	beforeCutoff := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	status := Evaluate(testSubject(), day, nil, testSchedules(), nil, testPolicy(), beforeCutoff)
	assert.Equal(t, StatusPending, status)

	afterCutoff := time.Date(2024, 3, 12, 9, 10, 0, 0, time.UTC)
	status = Evaluate(testSubject(), day, nil, testSchedules(), nil, testPolicy(), afterCutoff)
	assert.Equal(t, StatusAbsent, status)
}

func TestEvaluateIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	day := date(t, "2024-03-12")

	first := Evaluate(testSubject(), day, nil, testSchedules(), nil, testPolicy(), now)
	second := Evaluate(testSubject(), day, nil, testSchedules(), nil, testPolicy(), now)
	assert.Equal(t, first, second)
}

func TestScanVerdictClassification(t *testing.T) {
	schedules := testSchedules()
	sub := testSubject()

	verdict, ok := ScanVerdict(sub, time.Date(2024, 3, 12, 7, 10, 0, 0, time.UTC), schedules, testPolicy())
	assert.True(t, ok)
	assert.Equal(t, StatusPresent, verdict)

	verdict, ok = ScanVerdict(sub, time.Date(2024, 3, 12, 7, 20, 0, 0, time.UTC), schedules, testPolicy())
	assert.True(t, ok)
	assert.Equal(t, StatusLate, verdict)

	verdict, ok = ScanVerdict(sub, time.Date(2024, 3, 12, 9, 10, 0, 0, time.UTC), schedules, testPolicy())
	assert.True(t, ok)
	assert.Equal(t, StatusAbsent, verdict)

	sub.ShiftKey = "evening"
	verdict, ok = ScanVerdict(sub, time.Date(2024, 3, 12, 7, 10, 0, 0, time.UTC), schedules, testPolicy())
	assert.False(t, ok)
	assert.Equal(t, StatusConfigMissing, verdict)
}
