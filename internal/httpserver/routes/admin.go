package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/mw"
)

func init() { Register("admin", registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	admin := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))
	admin.Post("/api/trigger-check", handlers.TriggerCheck(d))
	admin.Post("/api/reload-roster", handlers.ReloadRoster(d))
}
