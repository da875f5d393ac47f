package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sleepcalc/internal/calendar"
	"sleepcalc/internal/prefs"
	"sleepcalc/internal/remind"
	"sleepcalc/internal/sleep"
)

/* ---------------- prefs ---------------- */

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show, change, export or clear saved preferences",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.store.Load()
			if format == formatText {
				printPrefs(a, p)
				return nil
			}
			return encode(a.out, format, p)
		},
	}
	show.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text, json, yaml")

	var (
		wakeStr     string
		reminderStr string
		bufferMin   int
		cycles      int
		dark        bool
		notify      bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.store.Load()
			now := a.now()
			f := cmd.Flags()
			if f.Changed("wake") {
				t, err := sleep.ParseClock(wakeStr, now)
				if err != nil {
					return fmt.Errorf("invalid --wake: %w", err)
				}
				p.WakeTime = t
			}
			if f.Changed("reminder") {
				t, err := sleep.ParseClock(reminderStr, now)
				if err != nil {
					return fmt.Errorf("invalid --reminder: %w", err)
				}
				p.ReminderTime = t
			}
			if f.Changed("buffer") {
				if bufferMin < 0 {
					return fmt.Errorf("--buffer must be >= 0")
				}
				p.FallAsleepBuffer = bufferMin
			}
			if f.Changed("cycles") {
				p.PreferredCycles = cycles
			}
			if f.Changed("dark") {
				p.IsDarkMode = dark
			}
			if f.Changed("notifications") {
				p.NotificationsEnabled = notify
			}
			if err := a.store.Save(p); err != nil {
				return err
			}
			printPrefs(a, p)
			return nil
		},
	}
	set.Flags().StringVar(&wakeStr, "wake", "", "Wake-up time HH:MM")
	set.Flags().StringVar(&reminderStr, "reminder", "", "Reminder time HH:MM")
	set.Flags().IntVar(&bufferMin, "buffer", sleep.DefaultConfig.FallAsleepBufferMinutes, "Minutes to fall asleep")
	set.Flags().IntVar(&cycles, "cycles", 5, "Preferred cycle count")
	set.Flags().BoolVar(&dark, "dark", false, "Dark mode")
	set.Flags().BoolVar(&notify, "notifications", false, "Enable notifications")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove saved preferences and schedule history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "All data cleared")
			return nil
		},
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of preferences and reminder settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.store.Export()
			if out == "-" {
				return encode(a.out, formatJSON, b)
			}
			path := out
			if path == "" {
				path = prefs.BackupFileName(b.ExportedAt)
			}
			f, err := a.fs.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := encode(f, formatJSON, b); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", path, err)
			}
			fmt.Fprintf(a.out, "Exported to %s\n", path)
			return nil
		},
	}
	export.Flags().StringVar(&out, "out", "", "Output file (default sleep-calculator-backup-DATE.json, - for stdout)")

	cmd.AddCommand(show, set, clearCmd, export)
	return cmd
}

func printPrefs(a *app, p prefs.Preferences) {
	fmt.Fprintf(a.out, "Wake time:          %s\n", fmtStamp(p.WakeTime))
	fmt.Fprintf(a.out, "Fall-asleep buffer: %dm\n", p.FallAsleepBuffer)
	fmt.Fprintf(a.out, "Preferred cycles:   %d\n", p.PreferredCycles)
	fmt.Fprintf(a.out, "Dark mode:          %t\n", p.IsDarkMode)
	fmt.Fprintf(a.out, "Notifications:      %t\n", p.NotificationsEnabled)
	fmt.Fprintf(a.out, "Reminder time:      %s\n", fmtStamp(p.ReminderTime))
}

/* ---------------- history ---------------- */

func newHistoryCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently chosen schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := a.store.Schedules()
			if format != formatText {
				return encode(a.out, format, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No saved schedules")
				return nil
			}
			for _, s := range list {
				fmt.Fprintf(a.out, "%s  bed %s -> wake %s  %d cycles (%.1fh)  %s\n",
					s.SavedAt.Format("2006-01-02 15:04"),
					sleep.FormatTime(s.Bedtime), sleep.FormatTime(s.WakeTime),
					s.Cycles, s.TotalHours, s.Quality)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text, json, yaml")
	return cmd
}

/* ---------------- ics ---------------- */

// scheduleFlags selects one schedule from the saved preferences and overrides.
type scheduleFlags struct {
	wake   string
	buffer int
	cycles int
}

func (s *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.wake, "wake", "", "Wake-up time HH:MM (default: saved wake time)")
	cmd.Flags().IntVar(&s.buffer, "buffer", -1, "Minutes to fall asleep (default: saved preference)")
	cmd.Flags().IntVar(&s.cycles, "cycles", 0, "Cycle count (default: preferred cycles)")
}

func (s *scheduleFlags) resolve(cmd *cobra.Command, a *app) (sleep.Calculation, error) {
	p := a.store.Load()
	wake := p.WakeTime
	if s.wake != "" {
		w, err := sleep.ParseClock(s.wake, a.now())
		if err != nil {
			return sleep.Calculation{}, err
		}
		wake = w
	}
	buffer := s.buffer
	if buffer < 0 {
		buffer = p.FallAsleepBuffer
	}
	cycles := s.cycles
	if !cmd.Flags().Changed("cycles") {
		cycles = p.PreferredCycles
	}
	return sleep.FromWakeTime(wake, cycles, buffer), nil
}

func newICSCmd(a *app) *cobra.Command {
	var (
		sf  scheduleFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export a schedule as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := sf.resolve(cmd, a)
			if err != nil {
				return err
			}
			body := calendar.Event(calc, calendar.UID(a.now()))
			_, _ = a.store.SaveSchedule(calc)

			if out == "-" {
				_, err := fmt.Fprintln(a.out, body)
				return err
			}
			path := out
			if path == "" {
				path = calendar.FileName(calc)
			}
			if err := afero.WriteFile(a.fs, path, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(a.out, "Calendar file written to %s\n", path)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output file (default sleep-schedule-DATE.ics, - for stdout)")
	return cmd
}

/* ---------------- remind ---------------- */

func newRemindCmd(a *app) *cobra.Command {
	var (
		sf      scheduleFlags
		test    bool
		enable  bool
		bedRem  bool
		wakeRem bool
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run bedtime and wake-up reminders in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns := a.store.LoadNotificationSettings()
			f := cmd.Flags()
			changed := false
			if f.Changed("enable") {
				ns.Enabled, changed = enable, true
			}
			if f.Changed("bedtime-reminder") {
				ns.BedtimeReminder, changed = bedRem, true
			}
			if f.Changed("wakeup-reminder") {
				ns.WakeUpReminder, changed = wakeRem, true
			}
			if f.Changed("minutes") {
				if minutes < 0 {
					return fmt.Errorf("--minutes must be >= 0")
				}
				ns.ReminderMinutes, changed = minutes, true
			}
			if changed {
				if err := a.store.SaveNotificationSettings(ns); err != nil {
					return err
				}
			}

			sched := remind.NewScheduler(remind.LogNotifier{Log: a.log}, ns, a.log, a.now)
			if test {
				return sched.Test(cmd.Context())
			}

			calc, err := sf.resolve(cmd, a)
			if err != nil {
				return err
			}
			return runReminders(cmd.Context(), a, sched, calc)
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&test, "test", false, "Send a test notification and exit")
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable reminders (saved)")
	cmd.Flags().BoolVar(&bedRem, "bedtime-reminder", true, "Remind before bedtime (saved)")
	cmd.Flags().BoolVar(&wakeRem, "wakeup-reminder", false, "Remind before wake time (saved)")
	cmd.Flags().IntVar(&minutes, "minutes", 30, "Minutes before bedtime to remind (saved)")
	return cmd
}

// runReminders blocks until the last reminder has fired or ctx is done.
func runReminders(ctx context.Context, a *app, sched *remind.Scheduler, calc sleep.Calculation) error {
	plan := sched.Schedule(ctx, calc)
	defer sched.Stop()
	if len(plan) == 0 {
		fmt.Fprintln(a.out, "No reminders to schedule")
		return nil
	}
	for _, r := range plan {
		fmt.Fprintf(a.out, "%s at %s\n", r.Title, fmtStamp(r.At))
	}

	done := time.NewTimer(lastReminder(plan).Sub(a.now()) + time.Second)
	defer done.Stop()
	select {
	case <-ctx.Done():
	case <-done.C:
	}
	return nil
}

// lastReminder is the latest fire time in plan, which need not be its last entry.
func lastReminder(plan []remind.Reminder) time.Time {
	var last time.Time
	for _, r := range plan {
		if r.At.After(last) {
			last = r.At
		}
	}
	return last
}
