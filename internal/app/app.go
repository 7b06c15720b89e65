package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tweetvault/internal/config"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver"
	"github.com/MrSnakeDoc/tweetvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tweetvault/internal/ingest"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/lookup"
	"github.com/MrSnakeDoc/tweetvault/internal/media"
	"github.com/MrSnakeDoc/tweetvault/internal/redis"
	"github.com/MrSnakeDoc/tweetvault/internal/scheduler"
	"github.com/MrSnakeDoc/tweetvault/internal/store"
	redisstore "github.com/MrSnakeDoc/tweetvault/internal/store/redis"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
	"github.com/MrSnakeDoc/tweetvault/internal/utils"
	"github.com/MrSnakeDoc/tweetvault/internal/vault"
	"github.com/MrSnakeDoc/tweetvault/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       store.Store
	redisClient *goredis.Client
	verifier    *scheduler.MediaVerifier
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debug("configuration loaded", cfg.LogFields()...)

	// Redis is optional unless it holds the document.
	var redisClient *goredis.Client
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		switch {
		case err == nil:
			redisClient = client
			loggerClient.Info("Redis initialized successfully")
		case cfg.StorageMode == config.ModeRedis:
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		default:
			loggerClient.Warn("redis unavailable, lookup cache disabled", logger.Error(err))
		}
	}

	st, err := store.Open(context.Background(), store.OptionsFromConfig(cfg, redisClient), loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open document store: %v", err)
		os.Exit(1)
	}

	lib := media.New(cfg.MediaDir, cfg.DownloadTimeout, loggerClient).WithMaxAssetBytes(cfg.MaxAssetBytes)

	var cache *redisstore.Store
	lk := lookup.New(cfg.LookupURL, cfg.LookupTimeout, loggerClient)
	if redisClient != nil {
		cache = redisstore.NewStore(redisClient, persist.Retry{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay}, loggerClient)
		lk = lk.WithCache(cache, cfg.LookupCacheTTL)
		loggerClient.Info("lookup cache enabled", logger.Duration("ttl", cfg.LookupCacheTTL))
	}

	im := ingest.New(lib, lk, ingest.Options{
		Concurrency:  cfg.MediaConcurrency,
		AutoHashtags: cfg.AutoHashtags,
	}, loggerClient)

	svc := vault.New(st, im, lib, loggerClient)
	if cache != nil {
		svc = svc.WithLookupCache(cache)
	}

	verifier := scheduler.NewMediaVerifier(svc, loggerClient, scheduler.VerifierOptions{
		Interval:     cfg.VerifyInterval,
		PruneOrphans: cfg.PruneOrphans,
		FetchPending: cfg.FetchPending,
	})

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Vault:          svc,
		StorageMode:    cfg.StorageMode,
		MediaDir:       cfg.MediaDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RedisClient:    redisClient,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		CaptureBurst:   cfg.CaptureBurst,
		CaptureRate:    cfg.CaptureRatePerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		store:       st,
		redisClient: redisClient,
		verifier:    verifier,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting tweetvault %s on %s (storage=%s)", version.Version, a.cfg.ListenPort, a.cfg.StorageMode)
	a.logger.Infof("tweetvault %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.VerifyInterval > 0 {
		if err := a.verifier.Start(ctx); err != nil {
			return fmt.Errorf("failed to start media verifier: %w", err)
		}
		a.logger.Info("media verifier started",
			logger.Duration("interval", a.cfg.VerifyInterval),
			logger.Bool("prune_orphans", a.cfg.PruneOrphans),
			logger.Bool("fetch_pending", a.cfg.FetchPending))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.close()
		return err
	}

	a.verifier.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.close()
	a.logger.Info("✅ tweetvault stopped cleanly")
	return nil
}

// close releases the store, then redis. The redis store shares the client.
func (a *App) close() {
	utils.MustClose(a.store, "document store", a.logger)

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
}
