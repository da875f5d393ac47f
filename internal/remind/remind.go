// Package remind schedules bedtime and wake-up reminders for a chosen
// schedule and hands them to an injected Notifier.
package remind

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sleepcalc/internal/prefs"
	"sleepcalc/internal/sleep"
)

// WakeUpLead is how long before wake time the wake-up reminder fires.
const WakeUpLead = 5 * time.Minute

var ErrDisabled = errors.New("remind: notifications are not enabled")

type Kind string

const (
	KindBedtime Kind = "bedtime-reminder"
	KindWakeUp  Kind = "wakeup-reminder"
	KindTest    Kind = "test-notification"
)

type Reminder struct {
	Kind  Kind
	At    time.Time
	Title string
	Body  string
}

// Notifier delivers a reminder. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// Plan lists the reminders settings asks for, skipping any not after now.
func Plan(calc sleep.Calculation, settings prefs.NotificationSettings, now time.Time) []Reminder {
	if !settings.Enabled {
		return nil
	}
	var out []Reminder
	if settings.BedtimeReminder {
		at := calc.Bedtime.Add(-time.Duration(settings.ReminderMinutes) * time.Minute)
		if at.After(now) {
			out = append(out, Reminder{
				Kind:  KindBedtime,
				At:    at,
				Title: "Time for Bed!",
				Body: fmt.Sprintf("Your optimal bedtime is %s for %d sleep cycles.",
					sleep.FormatTime(calc.Bedtime), calc.Cycles),
			})
		}
	}
	if settings.WakeUpReminder {
		at := calc.WakeTime.Add(-WakeUpLead)
		if at.After(now) {
			out = append(out, Reminder{
				Kind:  KindWakeUp,
				At:    at,
				Title: "Almost Time to Wake Up!",
				Body: fmt.Sprintf("You should wake up at %s for optimal sleep cycle completion.",
					sleep.FormatTime(calc.WakeTime)),
			})
		}
	}
	return out
}

// Scheduler arms one timer per planned reminder.
type Scheduler struct {
	notifier Notifier
	settings prefs.NotificationSettings
	log      *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	timers []*time.Timer
}

func NewScheduler(n Notifier, settings prefs.NotificationSettings, log *zap.Logger, now func() time.Time) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{notifier: n, settings: settings, log: log, now: now}
}

// Schedule arms the reminders for calc and returns what was armed. Timers
// that fire after ctx is done are dropped.
func (s *Scheduler) Schedule(ctx context.Context, calc sleep.Calculation) []Reminder {
	now := s.now()
	plan := Plan(calc, s.settings, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range plan {
		r := r
		t := time.AfterFunc(r.At.Sub(now), func() {
			if ctx.Err() != nil {
				return
			}
			if err := s.notifier.Notify(ctx, r); err != nil {
				s.log.Warn("reminder delivery failed", zap.String("kind", string(r.Kind)), zap.Error(err))
			}
		})
		s.timers = append(s.timers, t)
		s.log.Info("reminder scheduled", zap.String("kind", string(r.Kind)), zap.Time("at", r.At))
	}
	return plan
}

// Stop cancels every pending reminder.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// Test sends a test notification immediately.
func (s *Scheduler) Test(ctx context.Context) error {
	if !s.settings.Enabled {
		return ErrDisabled
	}
	return s.notifier.Notify(ctx, Reminder{
		Kind:  KindTest,
		At:    s.now(),
		Title: "Sleep Calculator Test",
		Body:  "This is a test notification to verify your notification settings are working correctly.",
	})
}

/* ---------------- notifiers ---------------- */

// LogNotifier delivers reminders to a zap logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r Reminder) error {
	n.Log.Info(r.Title,
		zap.String("kind", string(r.Kind)),
		zap.String("body", r.Body),
		zap.Time("at", r.At),
	)
	return nil
}
