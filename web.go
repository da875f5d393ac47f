package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"sleepcalc/internal/calendar"
	"sleepcalc/internal/sleep"
)

// Web form defaults; URL query only includes params that differ from these.
const (
	webDefaultWake   = "07:00"
	webDefaultBuffer = "15"
)

type OptionRow struct {
	Cycles      int
	Hours       string
	Bedtime     string
	Bedtime24   string
	Quality     string
	Color       string
	CalendarURL string
}

type PageData struct {
	Wake   string
	Buffer string

	Version string

	Error       string
	WakeLabel   string
	Options     []OptionRow
	Suggestions []string

	// Share text: meta description when Options is set (for link previews).
	ShareDescription string
}

func serveWeb(ctx context.Context, a *app, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newWebMux(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.Info("web ui started", zap.Int("port", port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newWebMux(a *app) *http.ServeMux {
	tpl := template.Must(template.New("page").Parse(pageHTML))
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		p := a.store.Load()
		q := r.URL.Query()
		data := PageData{
			Wake:    orDefault(q.Get("wake"), sleep.FormatTime24(p.WakeTime)),
			Buffer:  orDefault(q.Get("buffer"), savedBuffer(a)),
			Version: appVersion,
		}
		for _, s := range sleep.Suggestions(a.now())[1:] {
			data.Suggestions = append(data.Suggestions, sleep.FormatTime24(s))
		}

		if q.Get("wake") != "" {
			wake, buffer, err := parseWebInput(a, data.Wake, data.Buffer)
			if err != nil {
				data.Error = err.Error()
			} else {
				fillOptions(&data, wake, buffer)
			}
		}

		if err := tpl.Execute(w, data); err != nil {
			a.log.Warn("render page", zap.Error(err))
		}
	})

	mux.HandleFunc("/calc", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		wakeStr := strings.TrimSpace(r.FormValue("wake"))
		bufferStr := strings.TrimSpace(r.FormValue("buffer"))
		if bufferStr == "" {
			bufferStr = savedBuffer(a)
		}

		wake, buffer, err := parseWebInput(a, wakeStr, bufferStr)
		if err != nil {
			data := PageData{Wake: wakeStr, Buffer: bufferStr, Version: appVersion, Error: err.Error()}
			w.WriteHeader(http.StatusBadRequest)
			_ = tpl.Execute(w, data)
			return
		}

		p := a.store.Load()
		p.WakeTime = wake
		p.FallAsleepBuffer = buffer
		_ = a.store.Save(p)

		// Redirect to GET with query params (only non-defaults) so the URL reflects the calculation.
		http.Redirect(w, r, buildCalcURL(wakeStr, bufferStr), http.StatusFound)
	})

	mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		wake, buffer, err := parseWebInput(a, orDefault(q.Get("wake"), webDefaultWake), orDefault(q.Get("buffer"), savedBuffer(a)))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cycles, err := strconv.Atoi(orDefault(q.Get("cycles"), strconv.Itoa(a.store.Load().PreferredCycles)))
		if err != nil {
			http.Error(w, "cycles must be an integer", http.StatusBadRequest)
			return
		}

		calc := sleep.FromWakeTime(wake, cycles, buffer)
		_, _ = a.store.SaveSchedule(calc)

		w.Header().Set("Content-Type", calendar.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendar.FileName(calc)))
		_, _ = w.Write([]byte(calendar.Event(calc, calendar.UID(a.now()))))
	})

	mux.HandleFunc("/api/options", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		wake, buffer, err := parseWebInput(a, orDefault(q.Get("wake"), webDefaultWake), orDefault(q.Get("buffer"), savedBuffer(a)))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		rep := report{Mode: modeWake, Anchor: wake, Buffer: buffer, Options: sleep.Options(wake, buffer)}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rep)
	})

	return mux
}

func parseWebInput(a *app, wakeStr, bufferStr string) (time.Time, int, error) {
	if wakeStr == "" {
		return time.Time{}, 0, fmt.Errorf("wake-up time is required (HH:MM)")
	}
	wake, err := sleep.ParseClock(wakeStr, a.now())
	if err != nil {
		return time.Time{}, 0, err
	}
	buffer, err := strconv.Atoi(strings.TrimSpace(bufferStr))
	if err != nil || buffer < 0 {
		return time.Time{}, 0, fmt.Errorf("fall-asleep buffer must be >= 0 (minutes, default 15)")
	}
	return wake, buffer, nil
}

func fillOptions(data *PageData, wake time.Time, buffer int) {
	data.WakeLabel = fmtStamp(wake)
	for _, c := range sleep.Options(wake, buffer) {
		v := url.Values{}
		v.Set("wake", data.Wake)
		v.Set("buffer", strconv.Itoa(buffer))
		v.Set("cycles", strconv.Itoa(c.Cycles))
		data.Options = append(data.Options, OptionRow{
			Cycles:      c.Cycles,
			Hours:       strconv.FormatFloat(c.TotalHours, 'f', 1, 64),
			Bedtime:     sleep.FormatTime(c.Bedtime),
			Bedtime24:   sleep.FormatTime24(c.Bedtime),
			Quality:     c.Quality.Text(),
			Color:       c.Quality.Color(),
			CalendarURL: "/calendar.ics?" + v.Encode(),
		})
	}
	if len(data.Options) > 0 {
		o := data.Options[0]
		data.ShareDescription = fmt.Sprintf("Wake %s. Go to bed at %s for %d cycles (%sh).",
			data.WakeLabel, o.Bedtime, o.Cycles, o.Hours)
	}
}

// buildCalcURL returns "/?wake=..." and only adds other params when not default.
func buildCalcURL(wake, buffer string) string {
	v := url.Values{}
	v.Set("wake", wake)
	if buffer != "" && buffer != webDefaultBuffer {
		v.Set("buffer", buffer)
	}
	return "/?" + v.Encode()
}

// savedBuffer is the buffer used when a request leaves it out.
func savedBuffer(a *app) string {
	return strconv.Itoa(a.store.Load().FallAsleepBuffer)
}

func orDefault(val, def string) string {
	if strings.TrimSpace(val) == "" {
		return def
	}
	return strings.TrimSpace(val)
}

/* ---------------- HTML ---------------- */

const pageHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>sleepcalc</title>
  {{if .ShareDescription}}
  <meta name="description" content="{{.ShareDescription}}">
  <meta property="og:description" content="{{.ShareDescription}}">
  {{end}}
  <style>
    body { font-family: system-ui, sans-serif; margin: 0; padding: 24px; max-width: 760px; box-sizing: border-box; }
    * { box-sizing: border-box; }
    .err { color: #b00020; margin: 12px 0; padding: 10px; background: #ffebee; border-radius: 6px; }
    .card { border: 1px solid #e0e0e0; border-radius: 10px; padding: 16px; margin: 16px 0; background: #fafafa; }
    .mono { font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, monospace; }
    table { border-collapse: collapse; width: 100%; margin-top: 10px; }
    td, th { padding: 8px 10px; border-top: 1px solid #eee; text-align: left; }
    .chip { display: inline-block; padding: 2px 10px; border-radius: 12px; color: #fff; font-size: 0.85em; }
    .field { margin-bottom: 14px; }
    .field label { display: block; font-weight: 500; color: #333; margin-bottom: 4px; }
    .field input { padding: 8px 10px; font-size: 1em; border: 1px solid #ccc; border-radius: 6px; max-width: 120px; }
    .quick a { margin-right: 8px; }
    button[type="submit"] { padding: 10px 20px; font-size: 1em; background: #1976d2; color: #fff; border: none; border-radius: 6px; cursor: pointer; }
    footer { margin-top: 40px; color: #666; font-size: 0.9em; text-align: center; }
  </style>
</head>
<body>
  <form method="POST" action="/calc">
    <div class="field">
      <label for="wake">Wake up at</label>
      <input id="wake" name="wake" type="text" value="{{.Wake}}" placeholder="07:00" pattern="[0-9]{1,2}:[0-9]{2}" required autocomplete="off">
      <div class="quick">{{range .Suggestions}}<a href="/?wake={{.}}">{{.}}</a>{{end}}</div>
    </div>
    <div class="field">
      <label for="buffer">Minutes to fall asleep</label>
      <input id="buffer" name="buffer" type="number" min="0" step="5" value="{{.Buffer}}" placeholder="15">
    </div>
    <button type="submit">Calculate</button>
  </form>

  {{if .Error}}<div class="err">{{.Error}}</div>{{end}}

  {{if .Options}}
    <div class="card">
      <div><b>Wake up</b>: <span class="mono">{{.WakeLabel}}</span></div>
      <table>
        <tr><th>Bedtime</th><th>Cycles</th><th>Sleep</th><th>Quality</th><th></th></tr>
        {{range .Options}}
        <tr>
          <td class="mono">{{.Bedtime}} ({{.Bedtime24}})</td>
          <td>{{.Cycles}}</td>
          <td>{{.Hours}}h</td>
          <td><span class="chip" style="background: {{.Color}}">{{.Quality}}</span></td>
          <td><a href="{{.CalendarURL}}">.ics</a></td>
        </tr>
        {{end}}
      </table>
    </div>
  {{end}}

  <footer>sleepcalc v{{.Version}}</footer>
</body>
</html>`
