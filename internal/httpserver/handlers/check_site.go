package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// CheckSite probes one URL. Probe failures are part of the 200 response.
func CheckSite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			writeError(w, http.StatusBadRequest, "URL parameter is required")
			return
		}

		result := d.Prober.Probe(r.Context(), url)

		// Roster sites also refresh the dashboard
		if _, ok := d.Roster.Lookup(url); ok {
			d.Store.Apply(domain.ObservationFromProbe(result))
		}

		d.Logger.Info("site checked",
			logger.String("url", url),
			logger.String("status", string(result.Status)),
			logger.Int64("response_time_ms", result.ResponseTime))

		writeJSON(w, http.StatusOK, result)
	}
}
