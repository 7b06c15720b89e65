package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/lookup"
	"github.com/MrSnakeDoc/tweetvault/internal/media"
)

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type fakeLookup struct {
	status *lookup.Status
	err    error
	calls  int
}

func (f *fakeLookup) Lookup(_ context.Context, handle, id string) (*lookup.Status, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func newImporter(t *testing.T, lk Lookuper, auto bool) (*Importer, *media.Library) {
	t.Helper()
	lib := media.New(filepath.Join(t.TempDir(), "media"), time.Second, logger.NewNop())
	im := New(lib, lk, Options{Concurrency: 4, AutoHashtags: auto}, logger.NewNop())
	im.now = func() time.Time { return fixedNow }
	return im, lib
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const batchJSON = `[
  {
    "id": "100", "full_text": "first with photo", "screen_name": "alice", "name": "Alice",
    "created_at": "Wed Oct 15 10:00:00 +0000 2025",
    "favorite_count": 5, "retweet_count": "2", "views_count": -1,
    "media": [
      {"type": "photo", "url": "https://pbs.example/a.jpg", "thumbnail": "https://pbs.example/a_s.jpg", "original": "https://pbs.example/a_o.jpg"},
      {"type": "animated_gif", "url": "https://video.example/a.mp4", "thumbnail": "https://pbs.example/a_g.jpg"}
    ]
  },
  {
    "id_str": "200", "text": "second #GoLang", "screenName": "bob",
    "media": [{"type": "video", "url": "https://video.example/b.mp4", "thumbnail": "https://pbs.example/b.jpg", "original": "https://video.example/b.mp4"}]
  },
  {"id": 300, "full_text": "third", "user": {"screen_name": "carol", "name": "Carol"}, "tags": ["Reading", {"name": "To do", "completed": true}]},
  {"id": "100", "full_text": "duplicate of first", "screen_name": "alice"}
]`

func TestBatchEndToEnd(t *testing.T) {
	im, lib := newImporter(t, nil, false)
	archive := buildZip(t, map[string]string{
		"data/media/alice_100_photo_1.jpg": "jpeg-a",
		"alice_100_animated_gif_2.mp4":     "mp4-a",
		"unrelated.txt":                    "x",
	})

	entries, report, err := im.Batch(context.Background(), []byte(batchJSON), archive)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, Report{Records: 3, Skipped: 1, Resolved: 2, Unresolved: 1}, report)

	a := entries[0].Record
	assert.Equal(t, "first with photo", a.FullText, "first occurrence wins")
	assert.Equal(t, "2025-10-15T10:00:00.000Z", a.CreatedAt)
	assert.Equal(t, int64(2), a.RetweetCount, "numeric strings are accepted")
	assert.Equal(t, int64(0), a.ViewsCount, "negative counters clamp")
	require.Len(t, a.Media, 2)
	assert.Equal(t, domain.MediaImage, a.Media[0].Type)
	require.NotNil(t, a.Media[0].FileName)
	assert.Equal(t, "alice_100_photo_1.jpg", *a.Media[0].FileName)
	assert.Equal(t, "/media/alice_100_photo_1.jpg", a.Media[0].URL)
	assert.Equal(t, a.Media[0].URL, a.Media[0].Thumbnail)
	assert.True(t, lib.Exists("alice_100_photo_1.jpg"))

	gif := a.Media[1]
	assert.Equal(t, domain.MediaVideo, gif.Type)
	assert.Equal(t, "animated_gif", gif.Declared)
	require.NotNil(t, gif.FileName, "root-level archive entries resolve too")
	assert.Equal(t, "alice_100_animated_gif_2.mp4", *gif.FileName)
	assert.Equal(t, "/media/alice_100_animated_gif_2.mp4", gif.URL)
	assert.Equal(t, "https://pbs.example/a_g.jpg", gif.Thumbnail, "video thumbnails stay remote")
	data, err := os.ReadFile(filepath.Join(lib.Dir(), "alice_100_animated_gif_2.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "mp4-a", string(data))

	b := entries[1].Record
	assert.Equal(t, "200", b.ID)
	assert.Equal(t, "bob", b.ScreenName)
	require.Len(t, b.Media, 1)
	assert.Equal(t, domain.MediaVideo, b.Media[0].Type)
	assert.Nil(t, b.Media[0].FileName)
	assert.Equal(t, "https://video.example/b.mp4", b.Media[0].URL)
	assert.Equal(t, "https://x.com/bob/status/200", b.URL)
	assert.Empty(t, entries[1].Tags, "hashtags are off")

	c := entries[2]
	assert.Equal(t, "300", c.Record.ID)
	assert.Equal(t, "carol", c.Record.ScreenName)
	assert.Equal(t, "", c.Record.CreatedAt)
	assert.Equal(t, []TagSpec{{Name: "Reading"}, {Name: "To do", Completed: true}}, c.Tags)
}

func TestBatchRejectsWholeBatch(t *testing.T) {
	im, lib := newImporter(t, nil, false)
	archive := buildZip(t, map[string]string{"alice_1_photo_1.jpg": "x"})

	_, _, err := im.Batch(context.Background(), []byte(`[
	  {"id": "1", "full_text": "ok", "screen_name": "alice", "media": [{"type": "photo", "url": "https://e/x.jpg"}]},
	  {"id": "2"}
	]`), archive)
	assert.ErrorIs(t, err, domain.ErrValidation)

	names, _ := lib.List()
	assert.Empty(t, names, "nothing is written for a rejected batch")
}

func TestBatchInputShapes(t *testing.T) {
	im, _ := newImporter(t, nil, true)

	entries, _, err := im.Batch(context.Background(), []byte(`{"bookmarks":[{"id":"9","full_text":"exported #Go_Lang"}]}`), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []TagSpec{{Name: "Go Lang"}}, entries[0].Tags)

	entries, _, err = im.Batch(context.Background(), []byte(`[{"id":"8","full_text":"re-import","screen_name":"al",
		"media":[{"id":1,"type":"video","declared_type":"animated_gif","url":"https://video.example/8.mp4"}]}]`), nil)
	require.NoError(t, err)
	m := entries[0].Record.Media[0]
	assert.Equal(t, domain.MediaVideo, m.Type)
	assert.Equal(t, "animated_gif", m.DeclaredType(), "exported documents keep their declared type")

	_, _, err = im.Batch(context.Background(), []byte(`{"id":"1"}`), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = im.Batch(context.Background(), []byte(`[]`), []byte("not a zip"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSingleDirectCapture(t *testing.T) {
	lk := &fakeLookup{}
	im, _ := newImporter(t, lk, true)

	e, err := im.Single(context.Background(), []byte(`{"id":"5","full_text":"hello #World","screen_name":"dave","url":"https://x.com/dave/status/5"}`))
	require.NoError(t, err)

	assert.Equal(t, 0, lk.calls, "direct captures never hit the lookup")
	assert.Equal(t, "2026-10-18T09:00:00.000Z", e.Record.CreatedAt)
	assert.False(t, e.Record.Archived)
	assert.Equal(t, []TagSpec{{Name: "World"}}, e.Tags)
}

func TestSingleEnrichment(t *testing.T) {
	lk := &fakeLookup{status: &lookup.Status{
		ID:         "777",
		Text:       "enriched",
		CreatedAt:  "2026-01-01T00:00:00.000Z",
		ScreenName: "erin",
		Likes:      3,
		Media: []lookup.MediaItem{
			{Type: "photo", URL: "https://pbs.example/1.jpg"},
			{Type: "gif", URL: "https://video.example/2.mp4", Thumbnail: "https://pbs.example/2.jpg"},
		},
	}}
	im, _ := newImporter(t, lk, false)

	e, err := im.Single(context.Background(), []byte(`{"url":"https://x.com/erin/status/777?s=20","tags":["later"]}`))
	require.NoError(t, err)

	rec := e.Record
	assert.Equal(t, 1, lk.calls)
	assert.Equal(t, "777", rec.ID)
	assert.Equal(t, "https://x.com/erin/status/777", rec.URL)
	require.Len(t, rec.Media, 2)
	assert.Equal(t, domain.MediaImage, rec.Media[0].Type)
	assert.Equal(t, domain.MediaVideo, rec.Media[1].Type)
	assert.Equal(t, "photo", rec.Media[0].Declared)
	assert.Equal(t, "animated_gif", rec.Media[1].Declared, "lookup gifs use the exporter's type name")
	assert.Equal(t, "https://pbs.example/1.jpg", rec.Media[0].Thumbnail)
	assert.Nil(t, rec.Media[0].FileName)
	assert.Equal(t, []TagSpec{{Name: "later"}}, e.Tags)
}

func TestSingleErrors(t *testing.T) {
	down := &fakeLookup{err: errors.Join(domain.ErrEnrichmentUnavailable, errors.New("timeout"))}
	im, _ := newImporter(t, down, false)
	ctx := context.Background()

	_, err := im.Single(ctx, []byte(`{"url":"https://x.com/erin/status/1"}`))
	assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable)

	_, err = im.Single(ctx, []byte(`{"url":"https://x.com/home"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = im.Single(ctx, []byte(`{"full_text":"no id"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = im.Single(ctx, []byte(`[1,2]`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	noLookup, _ := newImporter(t, nil, false)
	_, err = noLookup.Single(ctx, []byte(`{"url":"https://x.com/erin/status/1"}`))
	assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable)
}

func TestFetchRemoteDegradesPerAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.jpg" {
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	im, lib := newImporter(t, nil, false)
	rec := &domain.Record{ID: "42", ScreenName: "frank", Media: []*domain.Media{
		{ID: 1, Type: domain.MediaImage, URL: srv.URL + "/ok.jpg", Original: srv.URL + "/ok.jpg"},
		{ID: 2, Type: domain.MediaVideo, URL: srv.URL + "/gone.mp4", Original: srv.URL + "/gone.mp4"},
	}}

	resolved, unresolved := im.FetchRemote(context.Background(), rec)

	assert.Equal(t, 1, resolved)
	assert.Equal(t, 1, unresolved)
	require.NotNil(t, rec.Media[0].FileName)
	assert.Equal(t, "frank_42_photo_1.jpg", *rec.Media[0].FileName)
	assert.Nil(t, rec.Media[1].FileName)
	assert.Equal(t, srv.URL+"/gone.mp4", rec.Media[1].URL)

	data, err := os.ReadFile(filepath.Join(lib.Dir(), "frank_42_photo_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}
