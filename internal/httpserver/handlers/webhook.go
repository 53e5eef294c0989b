package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/sitepulse/internal/deploy"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

const maxWebhookBytes = 1 << 20

// NetlifyWebhook ingests deployment events. Every well-formed payload is acknowledged.
func NetlifyWebhook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event deploy.Event
		dec := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBytes))
		if err := dec.Decode(&event); err != nil {
			d.Logger.Warn("invalid deployment payload", logger.Error(err))
			writeError(w, http.StatusBadRequest, "Webhook processing failed")
			return
		}

		ack := d.Deploys.Process(withoutCancel(r), event)
		writeJSON(w, http.StatusOK, ack)
	}
}
