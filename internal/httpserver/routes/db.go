package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/mw"
)

func init() { Register("db", registerDB) }

// registerDB exposes the document to vaults running in remote mode.
func registerDB(r chi.Router, d deps.Deps) {
	guard := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	guard.Get("/api/db", handlers.GetDocument(d))
	guard.Post("/api/db", handlers.PutDocument(d))
}
