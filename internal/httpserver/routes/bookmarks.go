package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/mw"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	capture := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.CaptureBurst,
		RefillPerIPPerMin: d.CaptureRate,
		MaxEntries:        4096,
		TrustProxy:        d.TrustProxy,
	}, d.Logger)

	r.Route("/api/bookmarks", func(r chi.Router) {
		r.With(capture).Post("/add", handlers.AddBookmark(d))
		r.Get("/", handlers.ListBookmarks(d))
		r.Get("/export", handlers.ExportBookmarks(d))
		r.Get("/{id}", handlers.GetBookmark(d))
		r.Put("/{id}", handlers.UpdateBookmarkTags(d))
		r.Delete("/{id}", handlers.DeleteBookmark(d))
		r.Post("/{id}/toggle-archive", handlers.ToggleArchive(d))
		r.Post("/{id}/tags/{tag}/toggle-completion", handlers.ToggleTagCompletion(d))
	})
}
