package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

// Liveness stays open for load balancers; everything revealing fleet
// state is restricted to the allowed CIDRs.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	guarded := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	guarded.Get("/readyz", handlers.Readyz(d))
	guarded.Get("/infra", handlers.Infra(d))
	guarded.Get("/metrics", handlers.Metrics(d))
}
