package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/utils"
)

// Multipart field names used by the upload form.
const (
	fieldJSON    = "jsonFile"
	fieldArchive = "zipFile"

	multipartMemory = 32 << 20
)

// Upload imports an exported batch (jsonFile) with its optional media
// archive (zipFile). The stored records are replaced by the batch.
func Upload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeError(w, r, d, domain.Validationf("invalid multipart upload: %v", err))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		entries, err := formFile(r, fieldJSON)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if entries == nil {
			writeError(w, r, d, domain.Validationf("%s is required", fieldJSON))
			return
		}
		archive, err := formFile(r, fieldArchive)
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		d.Logger.Info("batch upload received",
			logger.Int("json_bytes", len(entries)),
			logger.Int("archive_bytes", len(archive)))

		res, err := d.Vault.ImportBatch(r.Context(), entries, archive)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// formFile returns the content of the named file field, or nil when absent.
func formFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Validationf("failed to read %s: %v", field, err)
	}
	defer utils.Close(f)
	return readPart(f, field)
}

func readPart(f multipart.File, field string) ([]byte, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", domain.ErrValidation, field, err)
	}
	return data, nil
}
