package vault

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/ingest"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/tags"
)

// Add outcomes.
const (
	StatusCreated   = "created"
	StatusDuplicate = "duplicate"
)

type AddResult struct {
	Status          string         `json:"status"`
	Record          *domain.Record `json:"bookmark,omitempty"`
	Message         string         `json:"message"`
	UnresolvedMedia int            `json:"unresolved_media"`
}

type ImportResult struct {
	Count           int    `json:"count"`
	Skipped         int    `json:"skipped"`
	UnresolvedMedia int    `json:"unresolved_media"`
	Message         string `json:"message"`
}

// Filter selects records for ListRecords. Zero values list the first page
// of active records.
type Filter struct {
	Tag      string
	Search   string
	Archived bool
	Date     string // YYYY-MM-DD prefix of created_at
	Page     int
	Limit    int
}

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

type ListResult struct {
	Bookmarks []*domain.Record `json:"bookmarks"`
	Total     int              `json:"total"`
}

// AddSingle stores one captured item. An id already present is reported as
// a duplicate and nothing is downloaded or written.
func (s *Service) AddSingle(ctx context.Context, raw []byte) (*AddResult, error) {
	e, err := s.importer.Single(ctx, raw)
	if err != nil {
		return nil, err
	}
	rec := e.Record

	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if existing, _ := doc.FindRecord(rec.ID); existing != nil {
		return duplicate(existing), nil
	}

	resolved, unresolved := s.importer.FetchRemote(ctx, rec)
	defer s.settle(rec)

	var existing *domain.Record
	err = s.update(ctx, func(doc *domain.Document) error {
		// another request may have stored it while media were downloading
		if existing, _ = doc.FindRecord(rec.ID); existing != nil {
			return errUnchanged
		}
		rec.Normalize()
		if err := bindEntry(doc, e, s.now()); err != nil {
			return err
		}
		doc.Bookmarks = append(doc.Bookmarks, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return duplicate(existing), nil
	}

	s.log.Info("bookmark added",
		logger.String("record_id", rec.ID),
		logger.String("handle", rec.ScreenName),
		logger.Int("media_resolved", resolved),
		logger.Int("media_unresolved", unresolved))

	return &AddResult{
		Status:          StatusCreated,
		Record:          rec,
		Message:         "Bookmark added",
		UnresolvedMedia: unresolved,
	}, nil
}

func duplicate(rec *domain.Record) *AddResult {
	return &AddResult{Status: StatusDuplicate, Record: rec, Message: "Bookmark already exists"}
}

// ImportBatch replaces the stored records with the batch and reconciles the
// tag catalog. The catalog itself is kept.
func (s *Service) ImportBatch(ctx context.Context, entriesJSON, archive []byte) (*ImportResult, error) {
	entries, report, err := s.importer.Batch(ctx, entriesJSON, archive)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, e := range entries {
			s.settle(e.Record)
		}
	}()

	var added int
	err = s.update(ctx, func(doc *domain.Document) error {
		now := s.now()
		records := make([]*domain.Record, 0, len(entries))
		for _, e := range entries {
			e.Record.Normalize()
			if err := bindEntry(doc, e, now); err != nil {
				return err
			}
			records = append(records, e.Record)
		}
		doc.Bookmarks = records
		added = tags.Reconcile(doc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("batch imported",
		logger.Int("count", report.Records),
		logger.Int("skipped", report.Skipped),
		logger.Int("tags_registered", added),
		logger.Int("media_unresolved", report.Unresolved))

	return &ImportResult{
		Count:           report.Records,
		Skipped:         report.Skipped,
		UnresolvedMedia: report.Unresolved,
		Message:         "Bookmarks imported",
	}, nil
}

// bindEntry binds the tags requested for e and applies their completion flag.
func bindEntry(doc *domain.Document, e *ingest.Entry, now time.Time) error {
	for _, spec := range e.Tags {
		b, err := tags.Bind(doc, e.Record, spec.Name, now)
		if err != nil {
			return err
		}
		if spec.Completed {
			b.Completed = true
		}
	}
	return nil
}

// ListRecords filters, sorts newest first and paginates.
func (s *Service) ListRecords(ctx context.Context, f Filter) (*ListResult, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	tagKey := domain.TagKey(f.Tag)
	query := strings.ToLower(strings.TrimSpace(f.Search))

	items := make([]*domain.Record, 0, len(doc.Bookmarks))
	for _, r := range doc.Bookmarks {
		if r.Archived != f.Archived {
			continue
		}
		if f.Date != "" && !strings.HasPrefix(r.CreatedAt, f.Date) {
			continue
		}
		if tagKey != "" && !hasTagNamed(r, tagKey) {
			continue
		}
		if query != "" && !matches(r, query) {
			continue
		}
		items = append(items, r)
	}

	// unparseable timestamps sort last
	slices.SortStableFunc(items, func(a, b *domain.Record) int {
		ta, _ := domain.ParseTimestamp(a.CreatedAt)
		tb, _ := domain.ParseTimestamp(b.CreatedAt)
		return tb.Compare(ta)
	})

	total := len(items)
	start := min((f.Page-1)*f.Limit, total)
	end := min(start+f.Limit, total)

	return &ListResult{Bookmarks: items[start:end], Total: total}, nil
}

func hasTagNamed(r *domain.Record, key string) bool {
	for _, b := range r.Tags {
		if domain.TagKey(b.Name) == key {
			return true
		}
	}
	return false
}

func matches(r *domain.Record, query string) bool {
	return strings.Contains(strings.ToLower(r.FullText), query) ||
		strings.Contains(strings.ToLower(r.Name), query) ||
		strings.Contains(strings.ToLower(r.ScreenName), query)
}

func (s *Service) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return findRecord(doc, id)
}

// UpdateTags replaces the bindings of a record.
func (s *Service) UpdateTags(ctx context.Context, id string, names []string) (*domain.Record, error) {
	var out *domain.Record
	err := s.update(ctx, func(doc *domain.Document) error {
		rec, err := findRecord(doc, id)
		if err != nil {
			return err
		}
		if err := tags.SetBindings(doc, rec, names, s.now()); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

func (s *Service) ToggleTagCompletion(ctx context.Context, id, tagName string) (bool, error) {
	var completed bool
	err := s.update(ctx, func(doc *domain.Document) error {
		rec, err := findRecord(doc, id)
		if err != nil {
			return err
		}
		completed, err = tags.ToggleCompletion(rec, tagName)
		return err
	})
	return completed, err
}

func (s *Service) ToggleArchived(ctx context.Context, id string) (bool, error) {
	var archived bool
	err := s.update(ctx, func(doc *domain.Document) error {
		rec, err := findRecord(doc, id)
		if err != nil {
			return err
		}
		rec.Archived = !rec.Archived
		archived = rec.Archived
		return nil
	})
	return archived, err
}

// DeleteRecord removes a record, then its local media files and cached
// lookup. Both are best effort: a leftover file is reported as an orphan
// later.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	var files []string
	err := s.update(ctx, func(doc *domain.Document) error {
		rec, idx := doc.FindRecord(id)
		if rec == nil {
			return domain.NotFoundf("bookmark %s", id)
		}
		for _, m := range rec.Media {
			if m.FileName != nil {
				files = append(files, *m.FileName)
			}
		}
		doc.Bookmarks = slices.Delete(doc.Bookmarks, idx, idx+1)
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range files {
		if err := s.media.Remove(name); err != nil {
			s.log.Warn("failed to remove media file",
				logger.String("record_id", id),
				logger.String("file_name", name),
				logger.Error(err))
		}
	}
	if s.lookups != nil {
		if err := s.lookups.InvalidateLookup(ctx, id); err != nil {
			s.log.Warn("failed to invalidate cached lookup",
				logger.String("record_id", id),
				logger.Error(err))
		}
	}
	s.log.Info("bookmark deleted",
		logger.String("record_id", id),
		logger.Int("media_removed", len(files)))
	return nil
}
