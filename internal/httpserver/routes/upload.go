package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/handlers"
)

func init() { Register("upload", registerUpload) }

func registerUpload(r chi.Router, d deps.Deps) {
	r.Post("/api/upload", handlers.Upload(d))
	r.Handle("/media/*", handlers.Media(d))
}
