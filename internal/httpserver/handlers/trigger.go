package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

type triggerResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// TriggerCheck queues an asynchronous fleet run
func TriggerCheck(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.CheckTrigger <- struct{}{}:
			d.Logger.Info("manual fleet check triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, triggerResponse{Triggered: true, Message: "fleet check queued"})
		default:
			d.Logger.Warn("fleet check already queued",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, triggerResponse{Message: "a fleet check is already queued, please wait"})
		}
	}
}

type reloadResponse struct {
	Sites int `json:"sites"`
}

// ReloadRoster re-reads the roster file now. A broken file keeps the current roster.
func ReloadRoster(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Reloader.Reload(r.Context()); err != nil {
			d.Logger.Error("manual roster reload failed", logger.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, reloadResponse{Sites: d.Roster.Count()})
	}
}
