package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	s, err := Open(context.Background(), path, persist.Retry{Attempts: 2, BaseDelay: time.Millisecond}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReadSeedsDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Tags, 2)

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key = ?`, RootKey).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWriteOverwritesRoot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc, err := s.Read(ctx)
	require.NoError(t, err)

	doc.Bookmarks = append(doc.Bookmarks, &domain.Record{ID: "1", FullText: "first"})
	require.NoError(t, s.Write(ctx, doc))
	doc.Bookmarks[0].FullText = "second"
	require.NoError(t, s.Write(ctx, doc))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got.Bookmarks, 1)
	assert.Equal(t, "second", got.Bookmarks[0].FullText)
}

func TestIsBusyIgnoresOtherErrors(t *testing.T) {
	assert.False(t, IsBusy(errors.New("plain")))
	assert.False(t, IsBusy(nil))
}
