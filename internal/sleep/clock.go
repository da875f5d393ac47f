package sleep

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTime renders a short 12-hour clock string, e.g. "9:45 PM".
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatTime24 renders a 24-hour clock string, e.g. "21:45".
func FormatTime24(t time.Time) string {
	return t.Format("15:04")
}

// ParseClock parses "HH:MM" and returns its next occurrence strictly after now,
// in now's location.
func ParseClock(s string, now time.Time) (time.Time, error) {
	h, m, err := parseHHMM(s)
	if err != nil {
		return time.Time{}, err
	}
	t := atClock(now, h, m)
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

func parseHHMM(s string) (int, int, error) {
	t := strings.TrimSpace(s)
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return h, m, nil
}

func atClock(day time.Time, h, m int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

var commonWakeHours = []int{6, 7, 8}

// Suggestions returns quick-pick wake times: now, then 06:00, 07:00 and 08:00
// at their next occurrence. Hours already past today roll over to tomorrow.
func Suggestions(now time.Time) []time.Time {
	out := []time.Time{now}
	for _, h := range commonWakeHours {
		t := atClock(now, h, 0)
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		out = append(out, t)
	}
	return out
}

// ValidWakeTime reports whether wake is in the future or falls on tomorrow's date.
func ValidWakeTime(wake, now time.Time) bool {
	if wake.After(now) {
		return true
	}
	tomorrow := now.AddDate(0, 0, 1)
	wy, wm, wd := wake.In(now.Location()).Date()
	ty, tm, td := tomorrow.Date()
	return wy == ty && wm == tm && wd == td
}
