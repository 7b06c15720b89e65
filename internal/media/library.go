// Package media manages the directory of resolved media assets and the
// bounded downloads that fill it.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/utils"
)

const (
	// DefaultDownloadTimeout bounds a single asset download.
	DefaultDownloadTimeout = 10 * time.Second
	// DefaultMaxAssetBytes caps the size of one downloaded asset.
	DefaultMaxAssetBytes int64 = 200 << 20
	// FreshTTL is how long a written asset counts as in flight when its
	// writer never settles it.
	FreshTTL = time.Hour
)

// ErrTooLarge is returned when a download exceeds the asset size cap.
var ErrTooLarge = errors.New("media asset exceeds size limit")

// Library is the media directory.
type Library struct {
	dir      string
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	log      logger.Logger

	// fresh holds assets written but not yet referenced by a stored document.
	mu    sync.Mutex
	fresh map[string]time.Time
	now   func() time.Time
}

// New returns a library rooted at dir. The directory is created lazily.
func New(dir string, downloadTimeout time.Duration, log logger.Logger) *Library {
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}
	return &Library{
		dir:      dir,
		client:   &http.Client{},
		timeout:  downloadTimeout,
		maxBytes: DefaultMaxAssetBytes,
		log:      log.With(logger.String("media_dir", dir)),
		fresh:    map[string]time.Time{},
		now:      time.Now,
	}
}

// WithMaxAssetBytes sets the download size cap. Non-positive values keep
// the default.
func (l *Library) WithMaxAssetBytes(n int64) *Library {
	if n > 0 {
		l.maxBytes = n
	}
	return l
}

// InFlight reports whether name was written recently and not settled yet.
// Pruning must leave such files alone: the document that will reference
// them may not be stored yet.
func (l *Library) InFlight(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	at, ok := l.fresh[name]
	if !ok {
		return false
	}
	if l.now().Sub(at) > FreshTTL {
		delete(l.fresh, name)
		return false
	}
	return true
}

// Settle marks names as no longer in flight, once the document referencing
// them has been written or abandoned.
func (l *Library) Settle(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range names {
		delete(l.fresh, name)
	}
}

func (l *Library) markFresh(name string) {
	l.mu.Lock()
	l.fresh[name] = l.now()
	l.mu.Unlock()
}

// Dir returns the root directory.
func (l *Library) Dir() string { return l.dir }

func (l *Library) path(name string) (string, error) {
	if !domain.IsSafeFileName(name) {
		return "", domain.Validationf("invalid media file name %q", name)
	}
	return filepath.Join(l.dir, name), nil
}

// Save writes data under name, replacing any previous asset.
func (l *Library) Save(name string, data []byte) error {
	return l.write(name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Exists reports whether name is a regular file in the library.
func (l *Library) Exists(name string) bool {
	p, err := l.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes name. A missing file is not an error.
func (l *Library) Remove(name string) error {
	p, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// List returns the names of the regular files in the library, sorted.
// Hidden files (.gitkeep, in-flight temp files) are skipped.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list media dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Download fetches url into name within the download timeout.
// Failures wrap domain.ErrEnrichmentUnavailable; nothing is left on disk.
func (l *Library) Download(ctx context.Context, url, name string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrEnrichmentUnavailable, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download %s: %w", domain.ErrEnrichmentUnavailable, name, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download %s: unexpected status %d", domain.ErrEnrichmentUnavailable, name, resp.StatusCode)
	}
	if resp.ContentLength > l.maxBytes {
		return fmt.Errorf("%w: download %s: %w", domain.ErrEnrichmentUnavailable, name, ErrTooLarge)
	}

	err = l.write(name, func(w io.Writer) error {
		n, err := io.Copy(w, io.LimitReader(resp.Body, l.maxBytes+1))
		if err != nil {
			return err
		}
		if n > l.maxBytes {
			return ErrTooLarge
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: download %s: %w", domain.ErrEnrichmentUnavailable, name, err)
	}

	l.log.Debug("media downloaded", logger.String("file_name", name))
	return nil
}

// write streams into a temp file in the library and renames it into place.
// The asset stays in flight until settled.
func (l *Library) write(name string, fill func(io.Writer) error) error {
	target, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	tmp := filepath.Join(l.dir, "."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if err := fill(f); err != nil {
		utils.Close(f)
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	l.markFresh(name)
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}
