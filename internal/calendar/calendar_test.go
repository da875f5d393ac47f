package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepcalc/internal/sleep"
)

func TestEvent(t *testing.T) {
	wake := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	calc := sleep.FromWakeTime(wake, 5, 15)

	want := "BEGIN:VCALENDAR\n" +
		"VERSION:2.0\n" +
		"PRODID:-//Sleep Calculator//Sleep Schedule//EN\n" +
		"BEGIN:VEVENT\n" +
		"DTSTART:20260310T231500\n" +
		"DTEND:20260311T070000\n" +
		"SUMMARY:Sleep Schedule - 5 cycles (7.5h)\n" +
		"DESCRIPTION:Sleep cycle: 5 cycles\nTotal sleep: 7.5 hours\nQuality: Optimal Sleep\n" +
		"UID:1773213300000@sleep-calculator.com\n" +
		"END:VEVENT\n" +
		"END:VCALENDAR"

	assert.Equal(t, want, Event(calc, "1773213300000"))
}

func TestEvent_LocalStamps(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	wake := time.Date(2026, 3, 11, 6, 0, 0, 0, loc)
	out := Event(sleep.FromWakeTime(wake, 6, 0), "x")

	assert.Contains(t, out, "DTSTART:20260310T210000\n")
	assert.Contains(t, out, "DTEND:20260311T060000\n")
	assert.Contains(t, out, "SUMMARY:Sleep Schedule - 6 cycles (9.0h)\n")
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR"))
}

func TestUIDAndFileName(t *testing.T) {
	now := time.UnixMilli(1773213300123)
	assert.Equal(t, "1773213300123", UID(now))

	calc := sleep.FromWakeTime(time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC), 6, 15)
	require.Equal(t, 10, calc.Bedtime.Day())
	assert.Equal(t, "sleep-schedule-2026-03-10.ics", FileName(calc))
}
