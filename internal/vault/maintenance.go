package vault

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/export"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/stats"
)

// IntegrityReport compares media references with the files on disk.
type IntegrityReport struct {
	TotalBookmarks       int      `json:"total_bookmarks"`
	TotalMediaReferences int      `json:"total_media_references"`
	MissingFiles         []string `json:"missing_files"` // "{record_id}: {file_name}"
	OrphanFiles          []string `json:"orphan_files"`
}

// PendingReport summarizes a FetchPendingMedia run.
type PendingReport struct {
	Records    int `json:"records"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
}

func (s *Service) GetStatistics(ctx context.Context) (*stats.Statistics, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	st := stats.Compute(doc, s.now())
	if d := st.Diagnostics; d.MissingCreatedAt+d.Unparseable+d.OutOfRange > 0 {
		s.log.Debug("records left out of the heatmap",
			logger.Int("missing_created_at", d.MissingCreatedAt),
			logger.Int("unparseable", d.Unparseable),
			logger.Int("out_of_range", d.OutOfRange))
	}
	return &st, nil
}

// VerifyMediaIntegrity reports referenced files that are missing and files
// nothing references. It never modifies anything.
func (s *Service) VerifyMediaIntegrity(ctx context.Context) (*IntegrityReport, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return s.verify(doc)
}

func (s *Service) verify(doc *domain.Document) (*IntegrityReport, error) {
	report := &IntegrityReport{
		TotalBookmarks: len(doc.Bookmarks),
		MissingFiles:   []string{},
		OrphanFiles:    []string{},
	}

	referenced := make(map[string]struct{})
	for _, r := range doc.Bookmarks {
		for _, m := range r.Media {
			report.TotalMediaReferences++
			if m.FileName == nil || *m.FileName == "" {
				continue
			}
			referenced[*m.FileName] = struct{}{}
			if !s.media.Exists(*m.FileName) {
				report.MissingFiles = append(report.MissingFiles, fmt.Sprintf("%s: %s", r.ID, *m.FileName))
			}
		}
	}

	files, err := s.media.List()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list media: %v", domain.ErrPersistenceIO, err)
	}
	for _, name := range files {
		if _, ok := referenced[name]; !ok {
			report.OrphanFiles = append(report.OrphanFiles, name)
		}
	}
	return report, nil
}

// PruneOrphans deletes every unreferenced media file and returns the names
// removed. Assets still in flight are kept. Failures are logged and skipped.
func (s *Service) PruneOrphans(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.verify(doc)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(report.OrphanFiles))
	for _, name := range report.OrphanFiles {
		if s.media.InFlight(name) {
			s.log.Debug("skipping media not yet stored", logger.String("file_name", name))
			continue
		}
		if err := s.media.Remove(name); err != nil {
			s.log.Warn("failed to prune orphan",
				logger.String("file_name", name),
				logger.Error(err))
			continue
		}
		removed = append(removed, name)
	}
	if len(removed) > 0 {
		s.log.Info("orphan media pruned", logger.Int("removed", len(removed)))
	}
	return removed, nil
}

// FetchPendingMedia downloads every media still pointing at a remote URL.
// Downloads run outside the lock; results are merged into a fresh document.
func (s *Service) FetchPendingMedia(ctx context.Context) (*PendingReport, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	report := &PendingReport{}
	var fetched []*domain.Record
	for _, r := range doc.Bookmarks {
		if !hasPending(r) {
			continue
		}
		resolved, unresolved := s.importer.FetchRemote(ctx, r)
		report.Records++
		report.Resolved += resolved
		report.Unresolved += unresolved
		if resolved > 0 {
			fetched = append(fetched, r)
		}
	}
	if len(fetched) == 0 {
		return report, nil
	}
	defer s.settle(fetched...)

	err = s.update(ctx, func(doc *domain.Document) error {
		for _, src := range fetched {
			if dst, _ := doc.FindRecord(src.ID); dst != nil {
				mergeResolved(dst, src)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("pending media fetched",
		logger.Int("records", report.Records),
		logger.Int("resolved", report.Resolved),
		logger.Int("unresolved", report.Unresolved))
	return report, nil
}

func hasPending(r *domain.Record) bool {
	for _, m := range r.Media {
		if !m.Resolved() && m.RemoteSource() != "" {
			return true
		}
	}
	return false
}

// mergeResolved copies local handles from src onto the still unresolved
// media of dst with the same id.
func mergeResolved(dst, src *domain.Record) {
	for _, m := range dst.Media {
		if m.Resolved() {
			continue
		}
		for _, sm := range src.Media {
			if sm.ID == m.ID && sm.Resolved() {
				m.MarkResolved(*sm.FileName)
				break
			}
		}
	}
}

// Export renders the records in format. A nil archived exports everything.
func (s *Service) Export(ctx context.Context, format string, archived *bool) ([]byte, error) {
	format, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(doc.Bookmarks))
	for _, r := range doc.Bookmarks {
		if archived != nil && r.Archived != *archived {
			continue
		}
		records = append(records, r)
	}
	return export.Render(format, records)
}
