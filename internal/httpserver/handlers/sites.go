package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
)

type sitesResponse struct {
	Sites      []domain.SiteView       `json:"sites"`
	Summary    domain.DashboardSummary `json:"summary"`
	Alerts     domain.DomainAlerts     `json:"domain_alerts"`
	LastUpdate *time.Time              `json:"last_update,omitempty"`
}

// Sites returns the roster joined with the latest observations.
func Sites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views := domain.Join(d.Roster.Sites(), d.Store.Snapshot())

		resp := sitesResponse{
			Sites:   views,
			Summary: domain.Summarize(views),
			Alerts:  domain.EvaluateDomains(views, d.Now()),
		}
		if last := d.Store.GetLastUpdate(); !last.IsZero() {
			resp.LastUpdate = &last
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
