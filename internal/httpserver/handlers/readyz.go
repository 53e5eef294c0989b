package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready      bool       `json:"ready"`
	Sites      int        `json:"sites"`
	RosterAt   *time.Time `json:"roster_loaded_at,omitempty"`
	Observed   int        `json:"observed"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	FleetBusy  bool       `json:"fleet_running"`
	SinkActive bool       `json:"sink"`
}

// Readyz answers 503 until a roster is loaded. Probe results are not
// required: a fresh instance with an empty store is ready to check.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := readyzResponse{
			Sites:      d.Roster.Count(),
			SinkActive: d.Sink != nil,
		}
		if at := d.Roster.LoadedAt(); !at.IsZero() {
			resp.Ready = true
			resp.RosterAt = &at
		}
		if d.Store != nil {
			resp.Observed = d.Store.Count()
			if last, ok := d.Store.LastRun(); ok {
				ts := last.Timestamp
				resp.LastRunAt = &ts
			}
		}
		if d.Fleet != nil {
			resp.FleetBusy = d.Fleet.Running()
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
