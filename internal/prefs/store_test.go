package prefs

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sleepcalc/internal/sleep"
)

var fixedNow = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newFileStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return NewStore(NewFileBackend(fsys, "/data"), zap.NewNop(), clock), fsys
}

func samplePrefs() Preferences {
	return Preferences{
		WakeTime:             time.Date(2026, 3, 11, 6, 30, 0, 0, time.UTC),
		FallAsleepBuffer:     0,
		IsDarkMode:           true,
		NotificationsEnabled: true,
		ReminderTime:         time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC),
		PreferredCycles:      6,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) Backend{
		"file": func(t *testing.T) Backend { return NewFileBackend(afero.NewMemMapFs(), "/data") },
		"sqlite": func(t *testing.T) Backend {
			b, err := OpenSQLite(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { b.Close() })
			return b
		},
	}
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			s := NewStore(mk(t), zap.NewNop(), clock)

			assert.Equal(t, Defaults(fixedNow), s.Load())

			p := samplePrefs()
			require.NoError(t, s.Save(p))
			assert.Equal(t, p, s.Load())

			p.PreferredCycles = 4
			require.NoError(t, s.Save(p))
			assert.Equal(t, p, s.Load())

			require.NoError(t, s.Clear())
			assert.Equal(t, Defaults(fixedNow), s.Load())
		})
	}
}

func TestStore_LegacyRecordMergedOverDefaults(t *testing.T) {
	s, fsys := newFileStore(t)
	legacy := `{"wakeTime":"2026-03-11T07:00:00.000Z","fallAsleepBuffer":10,"isDarkMode":true,` +
		`"notificationsEnabled":false,"reminderTime":"2026-03-10T21:00:00.000Z"}`
	require.NoError(t, afero.WriteFile(fsys, "/data/"+KeyPreferences+".json", []byte(legacy), 0o644))

	got := s.Load()
	assert.Equal(t, 5, got.PreferredCycles)
	assert.True(t, got.WakeTime.Equal(time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10, got.FallAsleepBuffer)
	assert.True(t, got.IsDarkMode)
	assert.True(t, got.ReminderTime.Equal(time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)))
}

func TestStore_CorruptRecordLoadsDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	fsys := afero.NewMemMapFs()
	s := NewStore(NewFileBackend(fsys, "/data"), zap.New(core), clock)

	require.NoError(t, afero.WriteFile(fsys, "/data/"+KeyPreferences+".json", []byte(`{"wakeTime":`), 0o644))
	assert.Equal(t, Defaults(fixedNow), s.Load())

	require.NoError(t, afero.WriteFile(fsys, "/data/"+KeyPreferences+".json", []byte(`{"preferredCycles":"six"}`), 0o644))
	assert.Equal(t, Defaults(fixedNow), s.Load())

	require.Equal(t, 2, logs.FilterMessage("failed to load preferences").Len())
}

type brokenBackend struct{}

var errDisk = errors.New("disk on fire")

func (brokenBackend) Get(string) ([]byte, error) { return nil, errDisk }
func (brokenBackend) Set(string, []byte) error   { return errDisk }
func (brokenBackend) Delete(string) error        { return errDisk }

func TestStore_StorageUnavailable(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewStore(brokenBackend{}, zap.New(core), clock)

	err := s.Save(samplePrefs())
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.ErrorIs(t, err, errDisk)

	assert.Equal(t, Defaults(fixedNow), s.Load())
	assert.ErrorIs(t, s.Clear(), ErrStorageUnavailable)
	assert.Empty(t, s.Schedules())

	assert.Equal(t, 1, logs.FilterMessage("failed to save preferences").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to load preferences").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to clear data").Len())
}

func TestStore_ReadOnlyFs(t *testing.T) {
	s := NewStore(NewFileBackend(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data"), zap.NewNop(), clock)
	assert.ErrorIs(t, s.Save(samplePrefs()), ErrStorageUnavailable)
	assert.Equal(t, Defaults(fixedNow), s.Load())
}

func TestStore_Schedules(t *testing.T) {
	s, _ := newFileStore(t)
	assert.Empty(t, s.Schedules())

	wake := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	for i := 0; i < MaxSchedules+3; i++ {
		_, err := s.SaveSchedule(sleep.FromWakeTime(wake.Add(time.Duration(i)*time.Minute), 5, 15))
		require.NoError(t, err)
	}

	list := s.Schedules()
	require.Len(t, list, MaxSchedules)
	assert.Equal(t, wake.Add(time.Duration(MaxSchedules+2)*time.Minute), list[0].WakeTime)
	assert.Equal(t, wake.Add(3*time.Minute), list[MaxSchedules-1].WakeTime)
	assert.Equal(t, sleep.QualityOptimal, list[0].Quality)
	assert.Equal(t, fixedNow, list[0].SavedAt)
	assert.NotEqual(t, list[0].ID, list[1].ID)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Schedules())
}

func TestStore_NotificationSettings(t *testing.T) {
	s, fsys := newFileStore(t)
	assert.Equal(t, DefaultNotificationSettings(), s.LoadNotificationSettings())

	ns := NotificationSettings{Enabled: true, BedtimeReminder: false, WakeUpReminder: true, ReminderMinutes: 45}
	require.NoError(t, s.SaveNotificationSettings(ns))
	assert.Equal(t, ns, s.LoadNotificationSettings())

	require.NoError(t, afero.WriteFile(fsys, "/data/"+KeyNotifications+".json", []byte(`{"enabled":true}`), 0o644))
	got := s.LoadNotificationSettings()
	assert.True(t, got.Enabled)
	assert.True(t, got.BedtimeReminder)
	assert.Equal(t, 30, got.ReminderMinutes)

	// Clear leaves reminder settings in place.
	require.NoError(t, s.Clear())
	assert.True(t, s.LoadNotificationSettings().Enabled)
}

func TestStore_Export(t *testing.T) {
	s, _ := newFileStore(t)
	p := samplePrefs()
	require.NoError(t, s.Save(p))

	b := s.Export()
	assert.Equal(t, p, b.Preferences)
	assert.Equal(t, DefaultNotificationSettings(), b.NotificationSettings)
	assert.Equal(t, fixedNow, b.ExportedAt)
	assert.Equal(t, "sleep-calculator-backup-2026-03-10.json", BackupFileName(fixedNow))
}

func TestFileBackend_AtomicReplace(t *testing.T) {
	fsys := afero.NewMemMapFs()
	b := NewFileBackend(fsys, "/data")

	_, err := b.Get("k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Set("k", []byte("one")))
	require.NoError(t, b.Set("k", []byte("two")))
	got, err := b.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	exists, err := afero.Exists(fsys, "/data/k.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Delete("k"))
	require.NoError(t, b.Delete("k"))
	_, err = b.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteBackend(t *testing.T) {
	b, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer b.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Set("k", []byte(fmt.Sprintf("v%d", i))))
	}
	got, err := b.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	require.NoError(t, b.Delete("k"))
	_, err = b.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDefaults_BufferFromEngineConfig(t *testing.T) {
	assert.Equal(t, sleep.DefaultConfig.FallAsleepBufferMinutes, Defaults(fixedNow).FallAsleepBuffer)
	assert.Equal(t, 15, Defaults(fixedNow).FallAsleepBuffer)
}

func TestStore_WithDefaultBuffer(t *testing.T) {
	s := NewStore(NewFileBackend(afero.NewMemMapFs(), "/data"), nil, clock, WithDefaultBuffer(20))
	got := s.Load()
	assert.Equal(t, 20, got.FallAsleepBuffer)
	assert.Equal(t, 5, got.PreferredCycles)

	require.NoError(t, s.Save(samplePrefs()))
	assert.Equal(t, 0, s.Load().FallAsleepBuffer)
}
