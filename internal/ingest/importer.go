// Package ingest turns exported bookmark batches, captured posts and status
// permalinks into canonical records with deterministic media names.
package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/lookup"
	"github.com/MrSnakeDoc/tweetvault/internal/tags"
)

// Lookuper resolves a status permalink into its metadata.
type Lookuper interface {
	Lookup(ctx context.Context, handle, id string) (*lookup.Status, error)
}

// Assets is the media directory the importer resolves into.
type Assets interface {
	Save(name string, data []byte) error
	Download(ctx context.Context, url, name string) error
}

// TagSpec is a tag requested for an imported record.
type TagSpec struct {
	Name      string
	Completed bool
}

// Entry is one normalized record plus the tags to bind once it is stored.
type Entry struct {
	Record *domain.Record
	Tags   []TagSpec
}

// Report summarizes media resolution for one import.
type Report struct {
	Records    int // records produced
	Skipped    int // duplicate ids dropped inside the batch
	Resolved   int // media stored locally
	Unresolved int // media left on their remote URL
}

type Options struct {
	Concurrency  int  // parallel media resolutions
	AutoHashtags bool // request tags for #hashtags found in the text
}

// Importer normalizes input. It never touches the document store.
type Importer struct {
	assets Assets
	lookup Lookuper
	opts   Options
	log    logger.Logger
	now    func() time.Time
}

// New returns an importer. lookup may be nil, in which case permalink
// captures fail with domain.ErrEnrichmentUnavailable.
func New(assets Assets, lookup Lookuper, opts Options, log logger.Logger) *Importer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Importer{
		assets: assets,
		lookup: lookup,
		opts:   opts,
		log:    log.With(logger.String("component", "ingest")),
		now:    time.Now,
	}
}

// FetchRemote downloads every unresolved media of rec that still has a
// remote source. A failed download only leaves that asset unresolved.
func (im *Importer) FetchRemote(ctx context.Context, rec *domain.Record) (resolved, unresolved int) {
	var ok, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Concurrency)

	for _, m := range rec.Media {
		if m.Resolved() {
			continue
		}
		src := m.RemoteSource()
		if src == "" {
			failed.Add(1)
			continue
		}

		name := domain.MediaFileName(rec.ScreenName, rec.ID, m.DeclaredType(), m.ID)
		g.Go(func() error {
			if err := im.assets.Download(gctx, src, name); err != nil {
				im.log.Warn("media download failed, keeping remote url",
					logger.String("record_id", rec.ID),
					logger.String("file_name", name),
					logger.Error(err))
				failed.Add(1)
				return nil
			}
			m.MarkResolved(name)
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(ok.Load()), int(failed.Load())
}

func (im *Importer) withHashtags(e *Entry) {
	if !im.opts.AutoHashtags {
		return
	}
	for _, name := range tags.DeriveFromText(e.Record.FullText) {
		e.Tags = append(e.Tags, TagSpec{Name: name})
	}
}
