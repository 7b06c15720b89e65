package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
)

type tagRequest struct {
	Name string `json:"name"`
}

func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Vault.ListTags(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CreateTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tagRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		tag, err := d.Vault.CreateTag(r.Context(), req.Name)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, tag)
	}
}

func RenameTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(chi.URLParam(r, "id"), "tag id")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		var req tagRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		tag, err := d.Vault.RenameTag(r.Context(), id, req.Name)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, tag)
	}
}

func DeleteTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(chi.URLParam(r, "id"), "tag id")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Vault.DeleteTag(r.Context(), id); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Tag deleted successfully"})
	}
}

func TagCount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(chi.URLParam(r, "id"), "tag id")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		n, err := d.Vault.TagUsageCount(r.Context(), id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}
