package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// CheckAllSites runs the whole roster and answers with the report.
// The run is detached from the request so a client disconnect does not
// leave a half merged report behind; the fleet deadline still applies.
func CheckAllSites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := d.Fleet.Check(withoutCancel(r))

		d.Logger.Info("fleet checked on demand",
			logger.Int("sites", report.TotalSites),
			logger.Int64("total_time_ms", report.TotalTimeMs),
			logger.Int("errors", report.Summary.Errors))

		writeJSON(w, http.StatusOK, report)
	}
}
