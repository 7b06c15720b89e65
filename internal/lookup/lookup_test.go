package lookup

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
	redisstore "github.com/MrSnakeDoc/tweetvault/internal/store/redis"
)

const samplePayload = `{
  "code": 200,
  "message": "OK",
  "tweet": {
    "id": "1790000000000000001",
    "url": "https://x.com/alice/status/1790000000000000001",
    "text": "shipping #golang today",
    "created_timestamp": 1767225600,
    "likes": 12,
    "retweets": 3,
    "replies": 1,
    "views": 900,
    "author": {"screen_name": "alice", "name": "Alice", "avatar_url": "https://pbs.example/alice.jpg"},
    "media": {"all": [
      {"type": "photo", "url": "https://pbs.example/1.jpg", "thumbnail_url": "https://pbs.example/1_small.jpg"},
      {"type": "gif", "url": "https://video.example/2.mp4", "thumbnail_url": "https://pbs.example/2.jpg"}
    ]}
  }
}`

func TestParse(t *testing.T) {
	st, err := Parse([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, "1790000000000000001", st.ID)
	assert.Equal(t, "alice", st.ScreenName)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", st.CreatedAt)
	assert.Equal(t, int64(12), st.Likes)
	assert.Equal(t, int64(900), st.Views)
	require.Len(t, st.Media, 2)
	assert.Equal(t, "gif", st.Media[1].Type)
	assert.Equal(t, "https://pbs.example/1_small.jpg", st.Media[0].Thumbnail)
}

func TestParseRejectsErrors(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":     `{`,
		"error code":   `{"code":404,"message":"NOT_FOUND"}`,
		"missing text": `{"code":200,"tweet":{"id":"1"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestParseStatusURL(t *testing.T) {
	tests := []struct {
		raw        string
		wantHandle string
		wantID     string
		wantErr    bool
	}{
		{"https://x.com/alice/status/123", "alice", "123", false},
		{"https://twitter.com/bob/status/456?s=20&t=abc", "bob", "456", false},
		{"https://x.com/carol/status/789/photo/1", "carol", "789", false},
		{"https://x.com/home", "", "", true},
		{"https://x.com/alice/status/notanumber", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			handle, id, err := ParseStatusURL(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHandle, handle)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestLookupUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/alice/status/1790000000000000001", r.URL.Path)
		_, _ = io.WriteString(w, samplePayload)
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	cache := redisstore.NewStore(rc, persist.DefaultRetry, logger.NewNop())

	c := New(srv.URL, time.Second, logger.NewNop()).WithCache(cache, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		st, err := c.Lookup(ctx, "alice", "1790000000000000001")
		require.NoError(t, err)
		assert.Equal(t, "shipping #golang today", st.Text)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists(redisstore.LookupKey("1790000000000000001")))
}

func TestLookupFailuresAreEnrichmentErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow/status/1" {
			time.Sleep(200 * time.Millisecond)
		}
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond, logger.NewNop())

	_, err := c.Lookup(context.Background(), "alice", "1")
	assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable)

	_, err = c.Lookup(context.Background(), "slow", "1")
	assert.ErrorIs(t, err, domain.ErrEnrichmentUnavailable)
}
