// Package file persists the document as one JSON file, replaced atomically
// on every write.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/retry"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
)

// Store reads and writes the whole document at path.
type Store struct {
	path   string
	policy retry.Policy
	log    logger.Logger
	now    func() time.Time
}

// New returns a file store. Nothing touches the disk until the first Read.
func New(path string, r persist.Retry, log logger.Logger) *Store {
	log = log.With(logger.String("store", "file"), logger.String("path", path))
	return &Store{
		path:   path,
		policy: persist.Policy(r, IsLockError, log),
		log:    log,
		now:    time.Now,
	}
}

// IsLockError reports the error classes a concurrent writer or an
// antivirus/indexer holding the file can cause.
func IsLockError(err error) bool {
	for _, errno := range []syscall.Errno{syscall.EBUSY, syscall.EAGAIN, syscall.EPERM, syscall.EACCES, syscall.ETXTBSY} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// Read loads the document, seeding and persisting a fresh one when the file
// does not exist yet.
func (s *Store) Read(ctx context.Context) (*domain.Document, error) {
	data, err := retry.DoValue(ctx, s.policy, func(context.Context) ([]byte, error) {
		return os.ReadFile(s.path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		doc := domain.NewDocument(s.now())
		if err := s.Write(ctx, doc); err != nil {
			return nil, err
		}
		s.log.Info("seeded new document")
		return doc, nil
	}
	if err != nil {
		return nil, persist.Classify("read document", err)
	}

	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, persist.Classify("read document", err)
	}
	return doc, nil
}

// Write replaces the document atomically: the JSON is written to a temp
// file in the same directory, then renamed over the target.
func (s *Store) Write(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return persist.Classify("write document", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return persist.Classify("write document", fmt.Errorf("failed to create data dir: %w", err))
	}

	err = retry.Do(ctx, s.policy, func(context.Context) error {
		return s.replace(dir, data)
	})
	return persist.Classify("write document", err)
}

func (s *Store) replace(dir string, data []byte) error {
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Close is a no-op; the file is never held open.
func (s *Store) Close() error { return nil }

// Path returns the document location.
func (s *Store) Path() string { return s.path }
