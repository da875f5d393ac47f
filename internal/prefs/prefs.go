// Package prefs persists user preferences, recent schedules and reminder
// settings through a pluggable key-value backend.
package prefs

import (
	"errors"
	"time"

	"sleepcalc/internal/sleep"
)

// Storage keys. The values match the ones used by the browser build so that
// exported records stay interchangeable.
const (
	KeyPreferences            = "sleep-calculator-preferences"
	KeySchedules              = "sleep-calculator-schedules"
	KeyNotificationPermission = "sleep-calculator-notification-permission"
	KeyNotifications          = "sleep-calculator-notifications"
)

// MaxSchedules bounds the saved schedule history.
const MaxSchedules = 10

var (
	// ErrNotFound is returned by a Backend for a key that holds no value.
	ErrNotFound = errors.New("prefs: key not found")
	// ErrStorageUnavailable wraps backend failures.
	ErrStorageUnavailable = errors.New("prefs: storage unavailable")
	// ErrSerialization wraps encode/decode failures of a stored record.
	ErrSerialization = errors.New("prefs: serialization failure")
)

type Preferences struct {
	WakeTime             time.Time `json:"wakeTime" yaml:"wakeTime"`
	FallAsleepBuffer     int       `json:"fallAsleepBuffer" yaml:"fallAsleepBuffer"`
	IsDarkMode           bool      `json:"isDarkMode" yaml:"isDarkMode"`
	NotificationsEnabled bool      `json:"notificationsEnabled" yaml:"notificationsEnabled"`
	ReminderTime         time.Time `json:"reminderTime" yaml:"reminderTime"`
	PreferredCycles      int       `json:"preferredCycles" yaml:"preferredCycles"`
}

// Defaults is the record every load starts from.
func Defaults(now time.Time) Preferences {
	return Preferences{
		WakeTime:             now,
		FallAsleepBuffer:     sleep.DefaultConfig.FallAsleepBufferMinutes,
		IsDarkMode:           false,
		NotificationsEnabled: false,
		ReminderTime:         now,
		PreferredCycles:      5,
	}
}

type NotificationSettings struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	BedtimeReminder bool `json:"bedtimeReminder" yaml:"bedtimeReminder"`
	WakeUpReminder  bool `json:"wakeUpReminder" yaml:"wakeUpReminder"`
	// ReminderMinutes is how long before bedtime the bedtime reminder fires.
	ReminderMinutes int `json:"reminderMinutes" yaml:"reminderMinutes"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:         false,
		BedtimeReminder: true,
		WakeUpReminder:  false,
		ReminderMinutes: 30,
	}
}

// SavedSchedule is a history entry.
type SavedSchedule struct {
	ID string `json:"id" yaml:"id"`
	sleep.Calculation `yaml:",inline"`
	SavedAt time.Time `json:"savedAt" yaml:"savedAt"`
}

// Backup is the exported settings document.
type Backup struct {
	Preferences          Preferences          `json:"preferences" yaml:"preferences"`
	NotificationSettings NotificationSettings `json:"notificationSettings" yaml:"notificationSettings"`
	ExportedAt           time.Time            `json:"exportedAt" yaml:"exportedAt"`
}

func BackupFileName(now time.Time) string {
	return "sleep-calculator-backup-" + now.UTC().Format("2006-01-02") + ".json"
}
