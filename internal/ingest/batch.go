package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/utils"
)

// archiveMediaDir is where exporters place media inside their archives.
const archiveMediaDir = "data/media/"

// Batch normalizes an exported batch and resolves its media against the
// optional zip archive. The whole batch is rejected before anything is
// written when one entry lacks an id or text. Inside the batch the first
// occurrence of an id wins.
func (im *Importer) Batch(ctx context.Context, entriesJSON []byte, archive []byte) ([]*Entry, Report, error) {
	var report Report

	list, err := entryList(entriesJSON)
	if err != nil {
		return nil, report, err
	}

	files, err := openArchive(archive)
	if err != nil {
		return nil, report, err
	}

	var (
		entries = make([]*Entry, 0, len(list))
		jobs    []mediaJob
		seen    = make(map[string]struct{}, len(list))
	)
	for i, obj := range list {
		e, err := normalizeEntry(obj)
		if err != nil {
			return nil, report, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[e.Record.ID]; dup {
			report.Skipped++
			continue
		}
		seen[e.Record.ID] = struct{}{}

		im.withHashtags(e)
		entries = append(entries, e)

		for _, m := range e.Record.Media {
			jobs = append(jobs, mediaJob{rec: e.Record, media: m})
		}
	}
	report.Records = len(entries)

	resolved, unresolved := im.resolveFromArchive(ctx, jobs, files)
	report.Resolved, report.Unresolved = resolved, unresolved

	im.log.Info("batch normalized",
		logger.Int("records", report.Records),
		logger.Int("skipped", report.Skipped),
		logger.Int("media_resolved", report.Resolved),
		logger.Int("media_unresolved", report.Unresolved))

	return entries, report, nil
}

type mediaJob struct {
	rec   *domain.Record
	media *domain.Media
}

// resolveFromArchive copies every archived asset into the media directory.
// Missing entries or failed writes keep the remote URLs.
func (im *Importer) resolveFromArchive(ctx context.Context, jobs []mediaJob, files map[string]*zip.File) (resolved, unresolved int) {
	var ok, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Concurrency)

	for _, job := range jobs {
		if job.media.Resolved() {
			ok.Add(1)
			continue
		}

		name := domain.MediaFileName(job.rec.ScreenName, job.rec.ID, job.media.DeclaredType(), job.media.ID)
		zf := lookupArchive(files, name)
		if zf == nil {
			failed.Add(1)
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			data, err := readZipFile(zf)
			if err == nil {
				err = im.assets.Save(name, data)
			}
			if err != nil {
				im.log.Warn("failed to store archived media, keeping remote url",
					logger.String("record_id", job.rec.ID),
					logger.String("file_name", name),
					logger.Error(err))
				failed.Add(1)
				return nil
			}
			job.media.MarkResolved(name)
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(ok.Load()), int(failed.Load())
}

// entryList accepts a top-level array, or an exported document whose
// "bookmarks" field holds the array.
func entryList(data []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, domain.Validationf("entries are not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("bookmarks")
	}
	if !root.IsArray() {
		return nil, domain.Validationf("entries must be a JSON array")
	}
	return root.Array(), nil
}

// openArchive indexes the zip entries by name. A nil archive yields no files.
func openArchive(archive []byte) (map[string]*zip.File, error) {
	files := map[string]*zip.File{}
	if len(archive) == 0 {
		return files, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, domain.Validationf("media archive is not a valid zip: %v", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files[f.Name] = f
	}
	return files, nil
}

// lookupArchive tries data/media/{name} first, then {name} at the root.
func lookupArchive(files map[string]*zip.File, name string) *zip.File {
	if f, ok := files[archiveMediaDir+name]; ok {
		return f
	}
	return files[name]
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer utils.Close(rc)
	return io.ReadAll(rc)
}
