// Package vault is the collaborator boundary: every operation the capture
// script, the upload UI and the listing UI perform goes through Service.
package vault

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/ingest"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
)

// Store persists the whole document.
type Store interface {
	Read(ctx context.Context) (*domain.Document, error)
	Write(ctx context.Context, doc *domain.Document) error
}

// Importer normalizes incoming payloads.
type Importer interface {
	Single(ctx context.Context, raw []byte) (*ingest.Entry, error)
	Batch(ctx context.Context, entriesJSON []byte, archive []byte) ([]*ingest.Entry, ingest.Report, error)
	FetchRemote(ctx context.Context, rec *domain.Record) (resolved, unresolved int)
}

// Media is the asset directory. Assets written by the importer stay in
// flight until the service settles them after its write.
type Media interface {
	Exists(name string) bool
	Remove(name string) error
	List() ([]string, error)
	InFlight(name string) bool
	Settle(names ...string)
}

// LookupCache drops cached status lookups. Implemented by the redis store.
type LookupCache interface {
	InvalidateLookup(ctx context.Context, statusID string) error
	FlushLookups(ctx context.Context) (int, error)
}

// Service serializes every read-modify-write cycle of this process. Other
// writers sharing the store are only arbitrated by the store retry policy.
type Service struct {
	mu       sync.Mutex
	store    Store
	importer Importer
	media    Media
	lookups  LookupCache
	log      logger.Logger
	now      func() time.Time
}

func New(store Store, importer Importer, media Media, log logger.Logger) *Service {
	return &Service{
		store:    store,
		importer: importer,
		media:    media,
		log:      log.With(logger.String("component", "vault")),
		now:      time.Now,
	}
}

// WithLookupCache lets record deletion and clearing drop cached lookups so
// a later capture of the same status is enriched from fresh data.
func (s *Service) WithLookupCache(c LookupCache) *Service {
	s.lookups = c
	return s
}

// FlushLookups drops every cached status lookup and returns how many were
// removed. Without a cache nothing is removed.
func (s *Service) FlushLookups(ctx context.Context) (int, error) {
	if s.lookups == nil {
		return 0, nil
	}
	n, err := s.lookups.FlushLookups(ctx)
	if err != nil {
		return n, err
	}
	s.log.Info("lookup cache flushed", logger.Int("removed", n))
	return n, nil
}

// errUnchanged aborts an update without writing.
var errUnchanged = errors.New("document unchanged")

// update runs fn on a fresh document and writes it back.
func (s *Service) update(ctx context.Context, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Read(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	return s.store.Write(ctx, doc)
}

func (s *Service) read(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Read(ctx)
}

// Document returns the persisted document as is.
func (s *Service) Document(ctx context.Context) (*domain.Document, error) {
	return s.read(ctx)
}

// ReplaceDocument overwrites the persisted document. Remote mirrors write
// through this.
func (s *Service) ReplaceDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.Validationf("document is required")
	}
	doc.Normalize()
	return s.update(ctx, func(cur *domain.Document) error {
		*cur = *doc
		return nil
	})
}

// ClearAll resets the document to its seeded state and flushes the lookup
// cache. Media files are left on disk and show up as orphans.
func (s *Service) ClearAll(ctx context.Context) error {
	err := s.update(ctx, func(doc *domain.Document) error {
		*doc = *domain.NewDocument(s.now())
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Warn("vault cleared")

	if _, err := s.FlushLookups(ctx); err != nil {
		s.log.Warn("failed to flush lookup cache", logger.Error(err))
	}
	return nil
}

// settle releases the local assets of records once the document that
// references them has been written, or the write was abandoned.
func (s *Service) settle(records ...*domain.Record) {
	var names []string
	for _, r := range records {
		for _, m := range r.Media {
			if m.Resolved() {
				names = append(names, *m.FileName)
			}
		}
	}
	if len(names) > 0 {
		s.media.Settle(names...)
	}
}

func findRecord(doc *domain.Document, id string) (*domain.Record, error) {
	rec, _ := doc.FindRecord(id)
	if rec == nil {
		return nil, domain.NotFoundf("bookmark %s", id)
	}
	return rec, nil
}
