package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
)

func newLibrary(t *testing.T, timeout time.Duration) *Library {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "media"), timeout, logger.NewNop())
}

func TestSaveListRemove(t *testing.T) {
	lib := newLibrary(t, time.Second)

	names, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, names, "missing directory lists as empty")

	require.NoError(t, lib.Save("b.jpg", []byte("b")))
	require.NoError(t, lib.Save("a.mp4", []byte("a")))
	require.NoError(t, os.WriteFile(filepath.Join(lib.Dir(), ".gitkeep"), nil, 0o644))

	names, err = lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp4", "b.jpg"}, names)
	assert.True(t, lib.Exists("a.mp4"))

	require.NoError(t, lib.Remove("a.mp4"))
	require.NoError(t, lib.Remove("a.mp4"), "removing twice is fine")
	assert.False(t, lib.Exists("a.mp4"))
}

func TestRejectsUnsafeNames(t *testing.T) {
	lib := newLibrary(t, time.Second)

	for _, name := range []string{"", "../escape.jpg", "sub/dir.jpg", `..\win.jpg`} {
		assert.ErrorIs(t, lib.Save(name, []byte("x")), domain.ErrValidation, name)
		assert.False(t, lib.Exists(name))
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	lib := newLibrary(t, time.Second)
	ctx := context.Background()

	require.NoError(t, lib.Download(ctx, srv.URL+"/ok.jpg", "alice_1_photo_1.jpg"))
	data, err := os.ReadFile(filepath.Join(lib.Dir(), "alice_1_photo_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	err = lib.Download(ctx, srv.URL+"/missing.jpg", "alice_1_photo_2.jpg")
	assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable)
	assert.False(t, lib.Exists("alice_1_photo_2.jpg"))
}

func TestDownloadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	lib := newLibrary(t, 50*time.Millisecond)
	err := lib.Download(context.Background(), srv.URL+"/slow.mp4", "slow.mp4")
	assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable)

	names, _ := lib.List()
	assert.Empty(t, names)
}

func TestDownloadSizeCap(t *testing.T) {
	payload := strings.Repeat("x", 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sized.mp4":
			_, _ = w.Write([]byte(payload + payload))
		case "/streamed.mp4":
			// flushing first drops the content length
			_, _ = w.Write([]byte(payload))
			w.(http.Flusher).Flush()
			_, _ = w.Write([]byte(payload))
		default:
			_, _ = w.Write([]byte(payload[:16]))
		}
	}))
	defer srv.Close()

	lib := newLibrary(t, time.Second).WithMaxAssetBytes(16)
	ctx := context.Background()

	for _, path := range []string{"/sized.mp4", "/streamed.mp4"} {
		err := lib.Download(ctx, srv.URL+path, "big.mp4")
		assert.ErrorIs(t, err, ErrTooLarge, path)
		assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable, path)
	}
	names, _ := lib.List()
	assert.Empty(t, names, "oversized assets leave nothing behind")

	require.NoError(t, lib.Download(ctx, srv.URL+"/exact.jpg", "exact.jpg"))
	assert.True(t, lib.Exists("exact.jpg"), "an asset at the cap is kept")
}

func TestWrittenAssetsStayInFlightUntilSettled(t *testing.T) {
	lib := newLibrary(t, time.Second)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	lib.now = func() time.Time { return now }

	assert.False(t, lib.InFlight("a.jpg"))

	require.NoError(t, lib.Save("a.jpg", []byte("a")))
	require.NoError(t, lib.Save("b.jpg", []byte("b")))
	assert.True(t, lib.InFlight("a.jpg"))
	assert.True(t, lib.InFlight("b.jpg"))

	lib.Settle("a.jpg", "never-written.jpg")
	assert.False(t, lib.InFlight("a.jpg"))
	assert.True(t, lib.InFlight("b.jpg"))

	now = now.Add(FreshTTL + time.Second)
	assert.False(t, lib.InFlight("b.jpg"), "unsettled assets expire")

	assert.Error(t, lib.Save("../c.jpg", []byte("c")))
	assert.False(t, lib.InFlight("../c.jpg"))
}
