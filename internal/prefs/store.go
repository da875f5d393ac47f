package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sleepcalc/internal/sleep"
)

// Store is the persistence layer for one user/device. Failures are logged and
// never escape as panics; Load always yields a complete record.
type Store struct {
	backend  Backend
	log      *zap.Logger
	now      func() time.Time
	defaults func(time.Time) Preferences

	mu sync.Mutex
}

type Option func(*Store)

// WithDefaultBuffer replaces the fall-asleep buffer of the default record.
func WithDefaultBuffer(minutes int) Option {
	return func(s *Store) {
		base := s.defaults
		s.defaults = func(now time.Time) Preferences {
			p := base(now)
			p.FallAsleepBuffer = minutes
			return p
		}
	}
}

// NewStore wraps backend. A nil clock means time.Now.
func NewStore(backend Backend, log *zap.Logger, now func() time.Time, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	s := &Store{backend: backend, log: log, now: now, defaults: Defaults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/* ---------------- preferences ---------------- */

func (s *Store) Save(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(KeyPreferences, p); err != nil {
		s.log.Error("failed to save preferences", zap.Error(err))
		return err
	}
	return nil
}

// Load returns the stored preferences merged over the default record. A
// missing or unreadable record yields the default record.
func (s *Store) Load() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := s.defaults(now)
	if err := s.get(KeyPreferences, &p); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to load preferences", zap.Error(err))
		}
		return s.defaults(now)
	}
	return p
}

// Clear removes preferences, schedule history and the cached notification
// permission.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, key := range []string{KeyPreferences, KeySchedules, KeyNotificationPermission} {
		if err := s.backend.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Error("failed to clear data", zap.Error(err))
		return err
	}
	return nil
}

/* ---------------- schedule history ---------------- */

// SaveSchedule records calc at the head of the history, keeping the newest
// MaxSchedules entries.
func (s *Store) SaveSchedule(calc sleep.Calculation) (SavedSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := SavedSchedule{
		ID:          uuid.NewString(),
		Calculation: calc,
		SavedAt:     s.now(),
	}
	list := append([]SavedSchedule{entry}, s.schedules()...)
	if len(list) > MaxSchedules {
		list = list[:MaxSchedules]
	}
	if err := s.put(KeySchedules, list); err != nil {
		s.log.Error("failed to save sleep schedule", zap.Error(err))
		return entry, err
	}
	return entry, nil
}

// Schedules returns the history newest first; empty when nothing is stored.
func (s *Store) Schedules() []SavedSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedules()
}

func (s *Store) schedules() []SavedSchedule {
	var list []SavedSchedule
	if err := s.get(KeySchedules, &list); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to load sleep schedules", zap.Error(err))
		}
		return []SavedSchedule{}
	}
	if list == nil {
		list = []SavedSchedule{}
	}
	return list
}

/* ---------------- notification settings ---------------- */

func (s *Store) LoadNotificationSettings() NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := DefaultNotificationSettings()
	if err := s.get(KeyNotifications, &ns); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to load notification settings", zap.Error(err))
		}
		return DefaultNotificationSettings()
	}
	return ns
}

func (s *Store) SaveNotificationSettings(ns NotificationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(KeyNotifications, ns); err != nil {
		s.log.Error("failed to save notification settings", zap.Error(err))
		return err
	}
	return nil
}

// Export snapshots the current settings for a backup file.
func (s *Store) Export() Backup {
	return Backup{
		Preferences:          s.Load(),
		NotificationSettings: s.LoadNotificationSettings(),
		ExportedAt:           s.now(),
	}
}

/* ---------------- codec ---------------- */

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrSerialization, key, err)
	}
	if err := s.backend.Set(key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// get decodes the stored value over v. v is left partially written on a
// decode error, so callers reset it.
func (s *Store) get(key string, v any) error {
	data, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrSerialization, key, err)
	}
	return nil
}
