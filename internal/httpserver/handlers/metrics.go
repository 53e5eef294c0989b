package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/metrics"
)

// Metrics exposes per-site gauges in the Prometheus text format
func Metrics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := metrics.Snapshot{
			Views: domain.Join(d.Roster.Sites(), d.Store.Snapshot()),
			Now:   d.Now(),
		}
		if last, ok := d.Store.LastRun(); ok {
			snap.LastRun = &last
		}

		w.Header().Set("Content-Type", metrics.ContentType)
		if err := metrics.Write(w, metrics.Build(snap)); err != nil {
			d.Logger.Debug("failed to write metrics", logger.Error(err))
		}
	}
}
