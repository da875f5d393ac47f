// Package sleep derives bedtimes and wake times from whole sleep cycles.
package sleep

import (
	"fmt"
	"time"
)

// DefaultBuffer is the time allowed to fall asleep when the caller has no preference.
const DefaultBuffer = 15

const defaultOptimalFloor = 5

// Config holds the cycle arithmetic constants.
type Config struct {
	CycleLengthMinutes      int
	MinCycles               int
	MaxCycles               int
	FallAsleepBufferMinutes int
	OptimalCycles           []int
}

// DefaultConfig is the process-wide schedule configuration.
var DefaultConfig = Config{
	CycleLengthMinutes:      90,
	MinCycles:               4,
	MaxCycles:               6,
	FallAsleepBufferMinutes: DefaultBuffer,
	OptimalCycles:           []int{5, 6},
}

func (c Config) Validate() error {
	if c.CycleLengthMinutes <= 0 {
		return fmt.Errorf("cycle length must be > 0")
	}
	if c.MinCycles <= 0 {
		return fmt.Errorf("min cycles must be > 0")
	}
	if c.MinCycles > c.MaxCycles {
		return fmt.Errorf("min cycles (%d) must not exceed max cycles (%d)", c.MinCycles, c.MaxCycles)
	}
	if c.FallAsleepBufferMinutes < 0 {
		return fmt.Errorf("fall-asleep buffer must be >= 0")
	}
	return nil
}

type Quality string

const (
	QualityOptimal Quality = "optimal"
	QualityGood    Quality = "good"
	QualityMinimal Quality = "minimal"
)

// QualityFor classifies a schedule by its cycle count alone.
func QualityFor(cycles int) Quality {
	return DefaultConfig.Quality(cycles)
}

// Quality is optimal from the smallest OptimalCycles entry up, good one cycle
// below that, and minimal otherwise.
func (c Config) Quality(cycles int) Quality {
	floor := c.optimalFloor()
	switch {
	case cycles >= floor:
		return QualityOptimal
	case cycles == floor-1:
		return QualityGood
	default:
		return QualityMinimal
	}
}

func (c Config) optimalFloor() int {
	if len(c.OptimalCycles) == 0 {
		return defaultOptimalFloor
	}
	floor := c.OptimalCycles[0]
	for _, n := range c.OptimalCycles[1:] {
		floor = min(floor, n)
	}
	return floor
}

func (q Quality) Text() string {
	switch q {
	case QualityOptimal:
		return "Optimal Sleep"
	case QualityGood:
		return "Good Sleep"
	case QualityMinimal:
		return "Minimal Sleep"
	default:
		return "Unknown"
	}
}

// Color is the display color used for a quality badge.
func (q Quality) Color() string {
	switch q {
	case QualityOptimal:
		return "#4caf50"
	case QualityGood:
		return "#ff9800"
	case QualityMinimal:
		return "#f44336"
	default:
		return "#757575"
	}
}

// Calculation is one candidate schedule. It is a value; nothing retains it.
type Calculation struct {
	Cycles     int       `json:"cycles" yaml:"cycles"`
	TotalHours float64   `json:"totalHours" yaml:"totalHours"`
	Bedtime    time.Time `json:"bedtime" yaml:"bedtime"`
	WakeTime   time.Time `json:"wakeTime" yaml:"wakeTime"`
	Quality    Quality   `json:"quality" yaml:"quality"`
}

/* ---------------- derivations ---------------- */

// FromWakeTime returns the bedtime that yields cycles full cycles before wake.
// Any cycle count is accepted, including zero and negative values.
func (c Config) FromWakeTime(wake time.Time, cycles, bufferMin int) Calculation {
	totalMin := cycles * c.CycleLengthMinutes
	return Calculation{
		Cycles:     cycles,
		TotalHours: float64(totalMin) / 60,
		Bedtime:    wake.Add(-minutes(totalMin + bufferMin)),
		WakeTime:   wake,
		Quality:    c.Quality(cycles),
	}
}

// FromBedtime is the inverse of FromWakeTime.
func (c Config) FromBedtime(bed time.Time, cycles, bufferMin int) Calculation {
	totalMin := cycles * c.CycleLengthMinutes
	return Calculation{
		Cycles:     cycles,
		TotalHours: float64(totalMin) / 60,
		Bedtime:    bed,
		WakeTime:   bed.Add(minutes(totalMin + bufferMin)),
		Quality:    c.Quality(cycles),
	}
}

// Options returns one calculation per supported cycle count, most cycles first.
func (c Config) Options(wake time.Time, bufferMin int) []Calculation {
	if c.MaxCycles < c.MinCycles {
		return nil
	}
	out := make([]Calculation, 0, c.MaxCycles-c.MinCycles+1)
	for cycles := c.MaxCycles; cycles >= c.MinCycles; cycles-- {
		out = append(out, c.FromWakeTime(wake, cycles, bufferMin))
	}
	return out
}

// BedtimeOptions is Options anchored on a bedtime.
func (c Config) BedtimeOptions(bed time.Time, bufferMin int) []Calculation {
	if c.MaxCycles < c.MinCycles {
		return nil
	}
	out := make([]Calculation, 0, c.MaxCycles-c.MinCycles+1)
	for cycles := c.MaxCycles; cycles >= c.MinCycles; cycles-- {
		out = append(out, c.FromBedtime(bed, cycles, bufferMin))
	}
	return out
}

func FromWakeTime(wake time.Time, cycles, bufferMin int) Calculation {
	return DefaultConfig.FromWakeTime(wake, cycles, bufferMin)
}

func FromBedtime(bed time.Time, cycles, bufferMin int) Calculation {
	return DefaultConfig.FromBedtime(bed, cycles, bufferMin)
}

func Options(wake time.Time, bufferMin int) []Calculation {
	return DefaultConfig.Options(wake, bufferMin)
}

func BedtimeOptions(bed time.Time, bufferMin int) []Calculation {
	return DefaultConfig.BedtimeOptions(bed, bufferMin)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
