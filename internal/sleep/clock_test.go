package sleep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	v := at(t, "2026-03-10 21:45")
	assert.Equal(t, "9:45 PM", FormatTime(v))
	assert.Equal(t, "21:45", FormatTime24(v))
	assert.Equal(t, "12:05 AM", FormatTime(at(t, "2026-03-10 00:05")))
}

func TestParseClock(t *testing.T) {
	now := at(t, "2026-03-10 22:00")

	got, err := ParseClock("07:00", now)
	require.NoError(t, err)
	assert.Equal(t, at(t, "2026-03-11 07:00"), got)

	got, err = ParseClock(" 23:30 ", now)
	require.NoError(t, err)
	assert.Equal(t, at(t, "2026-03-10 23:30"), got)

	got, err = ParseClock("22:00", now)
	require.NoError(t, err)
	assert.Equal(t, at(t, "2026-03-11 22:00"), got, "equal to now rolls over")

	for _, bad := range []string{"", "7", "24:00", "07:60", "ab:cd", "07:00:00"} {
		_, err := ParseClock(bad, now)
		assert.Error(t, err, bad)
	}
}

func TestSuggestions(t *testing.T) {
	now := at(t, "2026-03-10 06:30")
	got := Suggestions(now)
	require.Len(t, got, 4)
	assert.Equal(t, now, got[0])
	assert.Equal(t, at(t, "2026-03-11 06:00"), got[1])
	assert.Equal(t, at(t, "2026-03-10 07:00"), got[2])
	assert.Equal(t, at(t, "2026-03-10 08:00"), got[3])

	evening := at(t, "2026-03-10 21:00")
	got = Suggestions(evening)
	require.Len(t, got, 4)
	for i, h := range []string{"06:00", "07:00", "08:00"} {
		assert.Equal(t, at(t, "2026-03-11 "+h), got[i+1])
	}
}

func TestValidWakeTime(t *testing.T) {
	now := at(t, "2026-03-10 12:00")

	assert.True(t, ValidWakeTime(now.Add(time.Minute), now))
	assert.False(t, ValidWakeTime(now, now))
	assert.False(t, ValidWakeTime(at(t, "2026-03-10 07:00"), now))
	assert.False(t, ValidWakeTime(at(t, "2026-02-11 07:00"), now))
}
