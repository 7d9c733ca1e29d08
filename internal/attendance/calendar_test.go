package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func TestIsSchoolDayWeekdayMembership(t *testing.T) {
	studyDays := []int{1, 2, 3, 4} // Mon-Thu

	assert.True(t, IsSchoolDay(date(t, "2024-03-11"), studyDays, nil))  // Monday
	assert.False(t, IsSchoolDay(date(t, "2024-03-15"), studyDays, nil)) // Friday
	assert.False(t, IsSchoolDay(date(t, "2024-03-17"), studyDays, nil)) // Sunday
}

func TestIsSchoolDayHolidayAlwaysWins(t *testing.T) {
	holidays := NewDaySet("2024-03-11", "2024-04-15")
	studyDays := []int{0, 1, 2, 3, 4, 5, 6}

	for _, d := range []string{"2024-03-11", "2024-04-15"} {
		assert.False(t, IsSchoolDay(date(t, d), studyDays, holidays), "holiday %s", d)
	}
	assert.True(t, IsSchoolDay(date(t, "2024-03-12"), studyDays, holidays))
}

func TestIsSchoolDayEmptyStudyDays(t *testing.T) {
	assert.False(t, IsSchoolDay(date(t, "2024-03-11"), nil, nil))
	assert.False(t, IsSchoolDay(date(t, "2024-03-11"), []int{}, NewDaySet()))
}

func TestNewDaySetDropsMalformedEntries(t *testing.T) {
	set := NewDaySet("2024-03-11", "not-a-date", "2024/03/12")
	assert.Len(t, set, 1)
	assert.True(t, set.Has(date(t, "2024-03-11")))
}
