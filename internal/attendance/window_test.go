package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{GraceMinutes: 15, LateWindowMinutes: 90, LookbackDays: 14, Location: time.UTC}
}

func TestResolveWindowDeadlines(t *testing.T) {
	day := date(t, "2024-03-12")

	window, ok := ResolveWindow(day, "07:00", nil, testPolicy())
	require.True(t, ok)

	assert.Equal(t, time.Date(2024, 3, 12, 7, 0, 0, 0, time.UTC), window.ShiftStart)
	assert.Equal(t, time.Date(2024, 3, 12, 7, 15, 0, 0, time.UTC), window.OnTimeDeadline)
	assert.Equal(t, time.Date(2024, 3, 12, 8, 45, 0, 0, time.UTC), window.LateCutoff)
}

func TestResolveWindowGraceOverride(t *testing.T) {
	day := date(t, "2024-03-12")
	override := 30

	window, ok := ResolveWindow(day, "07:00", &override, testPolicy())
	require.True(t, ok)

	assert.Equal(t, time.Date(2024, 3, 12, 7, 30, 0, 0, time.UTC), window.OnTimeDeadline)
	assert.Equal(t, time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), window.LateCutoff)
}

func TestResolveWindowMalformedStart(t *testing.T) {
	day := date(t, "2024-03-12")

	for _, raw := range []string{"", "7", "07:60", "25:00", "ab:cd", "07:00:00"} {
		_, ok := ResolveWindow(day, raw, nil, testPolicy())
		assert.False(t, ok, "start %q should not resolve", raw)
	}
}

func TestResolveWindowAnchorsToLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	policy := testPolicy()
	policy.Location = loc

	window, ok := ResolveWindow(time.Date(2024, 3, 12, 0, 0, 0, 0, loc), "13:30", nil, policy)
	require.True(t, ok)

	assert.Equal(t, time.Date(2024, 3, 12, 13, 30, 0, 0, loc), window.ShiftStart)
	assert.Equal(t, loc, window.LateCutoff.Location())
}
