package handlers

import (
	"io"
	"net/http"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
)

// GetDocument serves the whole persisted document to remote mirrors.
func GetDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := d.Vault.Document(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		data, err := domain.EncodeDocument(doc)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// PutDocument replaces the whole persisted document.
func PutDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.MaxUploadBytes))
		if err != nil {
			writeError(w, r, d, domain.Validationf("failed to read body: %v", err))
			return
		}
		doc, err := domain.DecodeDocument(data)
		if err != nil {
			writeError(w, r, d, domain.Validationf("%v", err))
			return
		}
		if err := d.Vault.ReplaceDocument(r.Context(), doc); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Document saved"})
	}
}
