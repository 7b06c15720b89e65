package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
)

// Media serves resolved assets from the media directory. Directory
// listings and hidden files are not exposed.
func Media(d deps.Deps) http.Handler {
	fs := http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
		fs.ServeHTTP(w, r)
	})
}
