package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/sitepulse/internal/history"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

// History returns the recent checks of one site with uptime stats.
func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := strings.TrimSpace(r.URL.Query().Get("site"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit")) // invalid => default

		res, err := d.History.Query(r.Context(), site, limit)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case errors.Is(err, history.ErrSiteRequired):
			writeError(w, http.StatusBadRequest, "site parameter is required")
		case errors.Is(err, history.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "Database not configured")
		case errors.Is(err, history.ErrSiteNotFound):
			writeError(w, http.StatusNotFound, "Site not found")
		default:
			d.Logger.Error("history query failed", logger.String("site", site), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		}
	}
}
