package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/mw"
)

func init() { Register("maintenance", registerMaintenance) }

func registerMaintenance(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		r.Post("/api/maintenance/verify-media", handlers.VerifyMedia(d))
		r.Post("/api/maintenance/prune-orphans", handlers.PruneOrphans(d))
		r.Post("/api/maintenance/fetch-media", handlers.FetchMedia(d))
		r.Post("/api/maintenance/flush-lookups", handlers.FlushLookups(d))
		r.Post("/api/clear", handlers.ClearAll(d))
	})
}
