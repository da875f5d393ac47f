package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"gopkg.in/yaml.v3"

	"sleepcalc/internal/sleep"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

const (
	modeWake    = "wake"
	modeBedtime = "bedtime"
)

type report struct {
	Mode    string              `json:"mode" yaml:"mode"`
	Anchor  time.Time           `json:"anchor" yaml:"anchor"`
	Buffer  int                 `json:"fallAsleepBuffer" yaml:"fallAsleepBuffer"`
	Options []sleep.Calculation `json:"options" yaml:"options"`
}

func writeReport(w io.Writer, format string, rep report) error {
	switch format {
	case formatText, "":
		printReport(w, rep)
		return nil
	default:
		return encode(w, format, rep)
	}
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func printReport(w io.Writer, rep report) {
	if rep.Mode == modeBedtime {
		fmt.Fprintf(w, "Bedtime: %s, fall-asleep buffer %dm\n\n", fmtStamp(rep.Anchor), rep.Buffer)
	} else {
		fmt.Fprintf(w, "Wake up: %s, fall-asleep buffer %dm\n\n", fmtStamp(rep.Anchor), rep.Buffer)
	}
	for _, c := range rep.Options {
		if rep.Mode == modeBedtime {
			fmt.Fprintf(w, "  Wake up at %-9s %d cycles  %4.1fh  %s\n",
				sleep.FormatTime(c.WakeTime), c.Cycles, c.TotalHours, c.Quality.Text())
		} else {
			fmt.Fprintf(w, "  Go to bed at %-9s %d cycles  %4.1fh  %s\n",
				sleep.FormatTime(c.Bedtime), c.Cycles, c.TotalHours, c.Quality.Text())
		}
	}
}

func fmtStamp(t time.Time) string {
	return t.Format("Mon 02 Jan ") + sleep.FormatTime(t)
}

func printListenAddrs(w io.Writer, port int) {
	fmt.Fprintln(w, "Listening on:")
	fmt.Fprintf(w, "  http://127.0.0.1:%d/\n", port)

	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			ip, _, err := net.ParseCIDR(a.String())
			if err != nil || ip == nil || ip.IsLoopback() || ip.To4() == nil {
				continue
			}
			fmt.Fprintf(w, "  http://%s:%d/\n", ip.String(), port)
		}
	}
	fmt.Fprintln(w)
}
