// Package calendar renders a sleep schedule as an iCalendar document.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sleepcalc/internal/sleep"
)

const (
	stampLayout = "20060102T150405"
	uidDomain   = "sleep-calculator.com"
	ContentType = "text/calendar"
)

// Event renders calc as a single-event VCALENDAR. Timestamps are written in
// each timestamp's own location without a zone suffix.
func Event(calc sleep.Calculation, uid string) string {
	hours := strconv.FormatFloat(calc.TotalHours, 'f', 1, 64)
	summary := fmt.Sprintf("Sleep Schedule - %d cycles (%sh)", calc.Cycles, hours)
	description := fmt.Sprintf("Sleep cycle: %d cycles\nTotal sleep: %s hours\nQuality: %s",
		calc.Cycles, hours, calc.Quality.Text())

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Sleep Calculator//Sleep Schedule//EN",
		"BEGIN:VEVENT",
		"DTSTART:" + calc.Bedtime.Format(stampLayout),
		"DTEND:" + calc.WakeTime.Format(stampLayout),
		"SUMMARY:" + summary,
		"DESCRIPTION:" + description,
		"UID:" + uid + "@" + uidDomain,
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\n")
}

// UID derives an event identifier from the export time in Unix milliseconds.
func UID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// FileName is the download name for calc's calendar file.
func FileName(calc sleep.Calculation) string {
	return "sleep-schedule-" + calc.Bedtime.Format("2006-01-02") + ".ics"
}
