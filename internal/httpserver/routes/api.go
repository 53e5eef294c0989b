package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sitepulse/internal/httpserver/mw"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Group(func(api chi.Router) {
		// Endpoints that hit monitored sites are rate limited per client
		probing := api.With(mw.RateLimit(mw.RateLimitConfig{
			PerSecond:  d.RateLimit,
			Burst:      d.RateBurst,
			MaxEntries: 10000,
			TrustProxy: d.TrustProxy,
		}))
		probing.Get("/api/check-site", handlers.CheckSite(d))
		probing.Get("/api/check-all-sites", handlers.CheckAllSites(d))
		probing.Post("/api/check-all-sites", handlers.CheckAllSites(d))

		api.Get("/api/sites", handlers.Sites(d))
		api.Get("/api/history", handlers.History(d))
		api.Post("/api/webhook/netlify", handlers.NetlifyWebhook(d))
	})
}
