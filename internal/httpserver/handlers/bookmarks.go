package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/export"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/vault"
)

// maxCaptureBytes bounds a single captured item.
const maxCaptureBytes = 1 << 20

// AddBookmark stores one captured item. Duplicates answer 200, new records 201.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCaptureBytes))
		if err != nil {
			writeError(w, r, d, domain.Validationf("failed to read body: %v", err))
			return
		}

		res, err := d.Vault.AddSingle(r.Context(), raw)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		status := http.StatusCreated
		if res.Status == vault.StatusDuplicate {
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r.URL.Query())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		res, err := d.Vault.ListRecords(r.Context(), f)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func parseFilter(q url.Values) (vault.Filter, error) {
	f := vault.Filter{
		Tag:    q.Get("tag"),
		Search: q.Get("search"),
		Date:   q.Get("date"),
	}
	if v := q.Get("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.Validationf("archived must be a boolean, got %q", v)
		}
		f.Archived = b
	}
	for name, dst := range map[string]*int{"page": &f.Page, "limit": &f.Limit} {
		if v := q.Get(name); v != "" {
			n, err := intParam(v, name)
			if err != nil {
				return f, err
			}
			*dst = n
		}
	}
	return f, nil
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := d.Vault.GetRecord(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

func UpdateBookmarkTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTagsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		rec, err := d.Vault.UpdateTags(r.Context(), chi.URLParam(r, "id"), req.Tags)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Vault.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Bookmark deleted successfully"})
	}
}

func ToggleArchive(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		archived, err := d.Vault.ToggleArchived(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"archived": archived})
	}
}

func ToggleTagCompletion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
		if err != nil {
			writeError(w, r, d, domain.Validationf("invalid tag name: %v", err))
			return
		}
		completed, err := d.Vault.ToggleTagCompletion(r.Context(), chi.URLParam(r, "id"), tag)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
	}
}

// ExportBookmarks streams the records as a download. ?format selects
// markdown (default) or json; ?archived restricts to one side.
func ExportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var archived *bool
		if v := q.Get("archived"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, r, d, domain.Validationf("archived must be a boolean, got %q", v))
				return
			}
			archived = &b
		}

		format, err := export.ParseFormat(q.Get("format"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		data, err := d.Vault.Export(r.Context(), format, archived)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		mime, ext := export.ContentType(format)
		w.Header().Set("Content-Type", mime)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookmarks.%s"`, ext))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
