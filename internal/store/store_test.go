package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tweetvault/internal/config"
	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/store/file"
	"github.com/MrSnakeDoc/tweetvault/internal/store/memory"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
	"github.com/MrSnakeDoc/tweetvault/internal/store/redis"
	"github.com/MrSnakeDoc/tweetvault/internal/store/sqlite"
)

func TestOpenSelectsImplementation(t *testing.T) {
	dir := t.TempDir()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := Options{
		DBFile:     filepath.Join(dir, "db.json"),
		SQLitePath: filepath.Join(dir, "vault.db"),
		Retry:      persist.Retry{Attempts: 2, BaseDelay: time.Millisecond},
		Redis:      client,
	}

	tests := []struct {
		mode string
		want any
	}{
		{config.ModeFile, &file.Store{}},
		{"", &file.Store{}},
		{config.ModeLocal, &sqlite.Store{}},
		{config.ModeSQLite, &sqlite.Store{}},
		{config.ModeRedis, &redis.Store{}},
		{config.ModeMemory, &memory.Store{}},
	}

	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			opts := base
			opts.Mode = tt.mode

			s, err := Open(context.Background(), opts, logger.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			assert.IsType(t, tt.want, s)

			doc, err := s.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, domain.SchemaVersion, doc.Version)
		})
	}
}

func TestOpenRejectsIncompleteOptions(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Options{Mode: config.ModeRemote}, logger.NewNop())
	assert.Error(t, err)

	_, err = Open(ctx, Options{Mode: config.ModeRedis}, logger.NewNop())
	assert.Error(t, err)

	_, err = Open(ctx, Options{Mode: "floppy"}, logger.NewNop())
	assert.ErrorContains(t, err, "floppy")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		StorageMode:    config.ModeSQLite,
		SQLitePath:     "/tmp/x.db",
		RetryAttempts:  7,
		RetryBaseDelay: 20 * time.Millisecond,
	}
	opts := OptionsFromConfig(cfg, nil)
	assert.Equal(t, config.ModeSQLite, opts.Mode)
	assert.Equal(t, "/tmp/x.db", opts.SQLitePath)
	assert.Equal(t, 7, opts.Retry.Attempts)
	assert.Nil(t, opts.Redis)
}
