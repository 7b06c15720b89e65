package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
)

func Statistics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Vault.GetStatistics(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
