// Package store defines the document store contract and picks an
// implementation from the configured storage mode.
package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tweetvault/internal/config"
	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/store/file"
	"github.com/MrSnakeDoc/tweetvault/internal/store/memory"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
	"github.com/MrSnakeDoc/tweetvault/internal/store/redis"
	"github.com/MrSnakeDoc/tweetvault/internal/store/remote"
	"github.com/MrSnakeDoc/tweetvault/internal/store/sqlite"
)

// Store persists the whole document. Every implementation seeds the
// document on first Read and persists it before returning.
type Store interface {
	Read(ctx context.Context) (*domain.Document, error)
	Write(ctx context.Context, doc *domain.Document) error
	Close() error
}

// Options selects and configures the implementation.
type Options struct {
	Mode          string
	DBFile        string
	SQLitePath    string
	RemoteURL     string
	RemoteTimeout time.Duration
	Retry         persist.Retry

	// Redis must be connected when Mode is redis.
	Redis *goredis.Client
}

// OptionsFromConfig maps the runtime configuration onto store options.
func OptionsFromConfig(cfg *config.Config, client *goredis.Client) Options {
	return Options{
		Mode:          cfg.StorageMode,
		DBFile:        cfg.DBFile,
		SQLitePath:    cfg.SQLitePath,
		RemoteURL:     cfg.RemoteURL,
		RemoteTimeout: cfg.RemoteTimeout,
		Retry:         persist.Retry{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay},
		Redis:         client,
	}
}

// Open returns the store for opts.Mode.
func Open(ctx context.Context, opts Options, log logger.Logger) (Store, error) {
	log.Info("opening document store", logger.String("mode", opts.Mode))

	switch opts.Mode {
	case "", config.ModeFile:
		return file.New(opts.DBFile, opts.Retry, log), nil
	case config.ModeLocal, config.ModeSQLite:
		s, err := sqlite.Open(ctx, opts.SQLitePath, opts.Retry, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ModeRemote:
		if opts.RemoteURL == "" {
			return nil, fmt.Errorf("remote store requires a base URL")
		}
		return remote.New(opts.RemoteURL, opts.RemoteTimeout, opts.Retry, log), nil
	case config.ModeRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis store requires a connected client")
		}
		return redis.NewStore(opts.Redis, opts.Retry, log), nil
	case config.ModeMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", opts.Mode)
	}
}
