package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sleepcalc/internal/config"
	"sleepcalc/internal/logger"
	"sleepcalc/internal/prefs"
	"sleepcalc/internal/sleep"
)

const appVersion = "0.2.0"

// app carries the collaborators every command needs. Tests fill it directly;
// otherwise setup builds it from configuration.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *prefs.Store
	fs    afero.Fs
	now   func() time.Time
	out   io.Writer

	closers []io.Closer
}

func main() {
	a := &app{fs: afero.NewOsFs(), now: time.Now, out: os.Stdout}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		wakeStr    string
		bedStr     string
		bufferMin  int
		cycles     int
		format     string
		port       int
	)

	cmd := &cobra.Command{
		Use:           "sleepcalc",
		Short:         "Sleep cycle calculator (CLI or web)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(configPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, _ := cmd.Flags().GetBool("version"); ok {
				fmt.Fprintf(a.out, "sleepcalc v%s\n", appVersion)
				return nil
			}

			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			if port > 0 {
				printListenAddrs(a.out, port)
				return serveWeb(cmd.Context(), a, port)
			}

			if wakeStr != "" && bedStr != "" {
				return fmt.Errorf("--wake and --bedtime are mutually exclusive")
			}
			if bufferMin < -1 {
				return fmt.Errorf("--buffer must be >= 0")
			}

			single := cmd.Flags().Changed("cycles")
			p := a.store.Load()
			if bufferMin < 0 {
				bufferMin = p.FallAsleepBuffer
			}
			now := a.now()

			var rep report
			switch {
			case bedStr != "":
				bed, err := sleep.ParseClock(bedStr, now)
				if err != nil {
					return err
				}
				rep = report{Mode: modeBedtime, Anchor: bed, Buffer: bufferMin}
				if single {
					rep.Options = []sleep.Calculation{sleep.FromBedtime(bed, cycles, bufferMin)}
				} else {
					rep.Options = sleep.BedtimeOptions(bed, bufferMin)
				}
			default:
				wake := p.WakeTime
				if wakeStr != "" {
					w, err := sleep.ParseClock(wakeStr, now)
					if err != nil {
						return err
					}
					wake = w
				}
				rep = report{Mode: modeWake, Anchor: wake, Buffer: bufferMin}
				if single {
					rep.Options = []sleep.Calculation{sleep.FromWakeTime(wake, cycles, bufferMin)}
				} else {
					rep.Options = sleep.Options(wake, bufferMin)
				}
				if !sleep.ValidWakeTime(wake, now) {
					a.log.Warn("wake time is in the past", zap.Time("wake", wake))
				}

				if wakeStr != "" || cmd.Flags().Changed("buffer") {
					p.WakeTime = wake
					p.FallAsleepBuffer = bufferMin
					_ = a.store.Save(p)
				}
			}

			if single {
				_, _ = a.store.SaveSchedule(rep.Options[0])
			}
			return writeReport(a.out, format, rep)
		},
	}

	cmd.Version = appVersion
	cmd.SetVersionTemplate("sleepcalc v{{.Version}}\n")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $SLEEPCALC_CONFIG or ./sleepcalc.yaml)")

	cmd.Flags().StringVar(&wakeStr, "wake", "", "Wake-up time HH:MM (default: saved wake time)")
	cmd.Flags().StringVar(&bedStr, "bedtime", "", "Bedtime HH:MM; prints wake times instead")
	cmd.Flags().IntVar(&bufferMin, "buffer", -1, "Minutes to fall asleep (default: saved preference)")
	cmd.Flags().IntVar(&cycles, "cycles", 0, "Only this cycle count (default: all supported)")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text, json, yaml")
	cmd.Flags().IntVar(&port, "port", 0, "Run web UI on this port (e.g. 8484)")

	cmd.AddCommand(
		newPrefsCmd(a),
		newHistoryCmd(a),
		newICSCmd(a),
		newRemindCmd(a),
	)
	return cmd
}

// setup loads configuration and opens the store unless a caller already did.
func (a *app) setup(configPath string) error {
	if a.store != nil {
		if a.cfg == nil {
			a.cfg = &config.Config{Store: config.StoreConfig{Driver: config.DriverFile}, Sleep: config.SleepConfig{FallAsleepBuffer: sleep.DefaultConfig.FallAsleepBufferMinutes}}
		}
		if a.log == nil {
			a.log = zap.NewNop()
		}
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	path, err := cfg.StorePath()
	if err != nil {
		return err
	}

	var backend prefs.Backend
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
		db, err := prefs.OpenSQLite(path)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db)
		backend = db
	default:
		backend = prefs.NewFileBackend(a.fs, path)
	}

	a.cfg = cfg
	a.log = log
	a.store = prefs.NewStore(backend, log, a.now, prefs.WithDefaultBuffer(cfg.Sleep.FallAsleepBuffer))
	log.Debug("store ready", zap.String("driver", cfg.Store.Driver), zap.String("path", path))
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
