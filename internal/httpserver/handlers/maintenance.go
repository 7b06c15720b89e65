package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/vault"
)

type verifyResponse struct {
	Success bool                   `json:"success"`
	Report  *vault.IntegrityReport `json:"report"`
}

type pruneResponse struct {
	Success bool     `json:"success"`
	Removed []string `json:"removed"`
}

type fetchResponse struct {
	Success bool                 `json:"success"`
	Report  *vault.PendingReport `json:"report"`
}

func VerifyMedia(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := d.Vault.VerifyMediaIntegrity(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, verifyResponse{Success: true, Report: report})
	}
}

func PruneOrphans(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := d.Vault.PruneOrphans(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, pruneResponse{Success: true, Removed: removed})
	}
}

func FetchMedia(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := d.Vault.FetchPendingMedia(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, fetchResponse{Success: true, Report: report})
	}
}

type flushResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

func FlushLookups(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := d.Vault.FlushLookups(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, flushResponse{Success: true, Removed: removed})
	}
}

func ClearAll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Vault.ClearAll(r.Context()); err != nil {
			writeError(w, r, d, err)
			return
		}
		d.Logger.Warn("clear requested via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Cleared all data"})
	}
}
