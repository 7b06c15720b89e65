package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
)

var fastRetry = persist.Retry{Attempts: 3, BaseDelay: time.Millisecond}

func TestReadAndWrite(t *testing.T) {
	var stored atomic.Value
	stored.Store(`{"bookmarks":[],"tags":[{"id":1,"name":"To do","created_at":"2026-01-01T00:00:00Z"}],"version":1}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DocumentPath, r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, stored.Load().(string))
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			stored.Store(string(body))
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, time.Second, fastRetry, logger.NewNop())
	ctx := context.Background()

	doc, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Tags, 1)

	doc.Bookmarks = append(doc.Bookmarks, &domain.Record{ID: "9", FullText: "remote"})
	require.NoError(t, s.Write(ctx, doc))

	again, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, again.Bookmarks, 1)
	assert.Equal(t, "remote", again.Bookmarks[0].FullText)
}

func TestBusyOwnerIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"bookmarks":[],"tags":[],"version":1}`)
	}))
	defer srv.Close()

	s := New(srv.URL, time.Second, fastRetry, logger.NewNop())
	_, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBusyOwnerExhaustsAsContention(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusLocked)
	}))
	defer srv.Close()

	s := New(srv.URL, time.Second, fastRetry, logger.NewNop())
	_, err := s.Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageContention)
}

func TestServerErrorIsFatal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(srv.URL, time.Second, fastRetry, logger.NewNop())
	err := s.Write(context.Background(), domain.NewDocument(time.Now()))
	assert.ErrorIs(t, err, domain.ErrPersistenceIO)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
