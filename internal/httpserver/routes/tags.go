package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/handlers"
)

func init() { Register("tags", registerTags) }

func registerTags(r chi.Router, d deps.Deps) {
	r.Route("/api/tags", func(r chi.Router) {
		r.Get("/", handlers.ListTags(d))
		r.Post("/", handlers.CreateTag(d))
		r.Put("/{id}", handlers.RenameTag(d))
		r.Delete("/{id}", handlers.DeleteTag(d))
		r.Get("/{id}/count", handlers.TagCount(d))
	})
	r.Get("/api/statistics", handlers.Statistics(d))
}
