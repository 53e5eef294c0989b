package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
)

const timeLayout = "2006-01-02 15:04:05"

type componentStatus struct {
	OK          bool   `json:"ok"`
	SitesLoaded *int   `json:"sites_loaded,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	LastRun     string `json:"last_run,omitempty"`
	Running     *bool  `json:"running,omitempty"`
	Backend     string `json:"backend,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := d.Roster.Count()
		components := map[string]componentStatus{
			"roster": {
				OK:          count > 0,
				SitesLoaded: &count,
				LastReload:  formatTime(d.Roster.LoadedAt()),
			},
			"sink":      checkSink(r.Context(), d),
			"scheduler": schedulerStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// No sites = nothing to monitor
	if roster, exists := components["roster"]; exists {
		if !roster.OK {
			return "critical"
		}
	}

	// Sink down - probing works, history and webhooks don't persist
	if sink, exists := components["sink"]; exists && !sink.OK {
		return "degraded"
	}

	return "operational"
}

func checkSink(ctx context.Context, d deps.Deps) componentStatus {
	if d.Sink == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "history-and-build-records-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Sink.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.Sink.Name(),
			Mode:    "degraded",
			Impact:  "results-not-persisted",
			Error:   err.Error(),
		}
	}

	return componentStatus{
		OK:      true,
		Backend: d.Sink.Name(),
		Mode:    "optimal",
	}
}

func schedulerStatus(d deps.Deps) componentStatus {
	running := d.Fleet.Running()
	st := componentStatus{OK: true, Running: &running, LastRun: "never"}
	if last, ok := d.Store.LastRun(); ok {
		st.LastRun = formatTime(last.Timestamp)
	}
	return st
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(timeLayout)
}
