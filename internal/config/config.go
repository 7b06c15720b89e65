package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/logger"
)

// Storage modes accepted by VAULT_STORAGE_MODE.
const (
	ModeFile   = "file"
	ModeLocal  = "local"
	ModeSQLite = "sqlite"
	ModeRemote = "remote"
	ModeRedis  = "redis"
	ModeMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request bound, covers enrichment and uploads

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Storage
	DataDir          string        // root of persisted state (ex: ./data)
	DBFile           string        // JSON document used by the file store
	MediaDir         string        // directory holding resolved media assets
	StorageMode      string        // file | local | sqlite | remote | redis | memory
	SQLitePath       string        // embedded key-value database for local mode
	RemoteURL        string        // base URL of the vault that owns the record store (remote mode)
	RemoteTimeout    time.Duration // per-request timeout for remote mode
	RetryAttempts    int           // store retry attempts on lock contention
	RetryBaseDelay   time.Duration // first backoff delay, doubled each attempt
	MaxUploadBytes   int64         // multipart upload limit for batch imports
	MediaConcurrency int           // parallel media resolutions per import
	AutoHashtags     bool          // bind #hashtags found in text on import

	// Enrichment
	LookupURL       string        // status lookup API base (fxtwitter compatible)
	LookupTimeout   time.Duration // bound for a single lookup (ex: 5s)
	DownloadTimeout time.Duration // bound for a single media download (ex: 10s)
	MaxAssetBytes   int64         // size cap for a single downloaded media asset
	LookupCacheTTL  time.Duration // redis cache TTL for lookups, when redis is configured

	// Maintenance
	VerifyInterval time.Duration // media integrity check interval, 0 disables
	PruneOrphans   bool          // delete unreferenced media files after verification
	FetchPending   bool          // download unresolved media after verification

	// Redis (optional unless StorageMode == redis)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between connection retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // restricts /api/db and maintenance routes, empty = open
	AllowedHosts []string // Host headers accepted on /api/db, empty = any
	TrustProxy   bool     // trust X-Forwarded-For and friends
	CORSOrigins  []string // origins allowed to call the capture endpoint

	// Capture endpoint rate limit (per client IP)
	CaptureBurst      int
	CaptureRatePerMin int
}

func Load() *Config {
	dataDir := getenv("VAULT_DATA_DIR", "data")

	cfg := &Config{
		ListenPort:      getenv("VAULT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("VAULT_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("VAULT_REQUEST_TIMEOUT", 2*time.Minute),

		LogLevel:  getenv("VAULT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("VAULT_PRETTY_LOG", true),

		DataDir:          dataDir,
		DBFile:           getenv("VAULT_DB_FILE", filepath.Join(dataDir, "db.json")),
		MediaDir:         getenv("VAULT_MEDIA_DIR", filepath.Join(dataDir, "media")),
		StorageMode:      strings.ToLower(getenv("VAULT_STORAGE_MODE", ModeFile)),
		SQLitePath:       getenv("VAULT_SQLITE_PATH", filepath.Join(dataDir, "vault.db")),
		RemoteURL:        strings.TrimRight(getenv("VAULT_REMOTE_URL", ""), "/"),
		RemoteTimeout:    mustDuration("VAULT_REMOTE_TIMEOUT", 10*time.Second),
		RetryAttempts:    getenvInt("VAULT_RETRY_ATTEMPTS", 5),
		RetryBaseDelay:   mustDuration("VAULT_RETRY_BASE_DELAY", 50*time.Millisecond),
		MaxUploadBytes:   int64(getenvInt("VAULT_MAX_UPLOAD_BYTES", 512<<20)),
		MediaConcurrency: getenvInt("VAULT_MEDIA_CONCURRENCY", 4),
		AutoHashtags:     mustBool("VAULT_AUTO_HASHTAGS", true),

		LookupURL:       strings.TrimRight(getenv("VAULT_LOOKUP_URL", "https://api.fxtwitter.com"), "/"),
		LookupTimeout:   mustDuration("VAULT_LOOKUP_TIMEOUT", 5*time.Second),
		DownloadTimeout: mustDuration("VAULT_DOWNLOAD_TIMEOUT", 10*time.Second),
		MaxAssetBytes:   int64(getenvInt("VAULT_MAX_ASSET_BYTES", 200<<20)),
		LookupCacheTTL:  mustDuration("VAULT_LOOKUP_CACHE_TTL", 24*time.Hour),

		VerifyInterval: mustDuration("VAULT_VERIFY_INTERVAL", 24*time.Hour),
		PruneOrphans:   mustBool("VAULT_PRUNE_ORPHANS", false),
		FetchPending:   mustBool("VAULT_FETCH_PENDING", false),

		RedisAddr:           getenv("VAULT_REDIS_ADDR", ""),
		RedisUser:           getenv("VAULT_REDIS_USERNAME", ""),
		RedisPassword:       getenv("VAULT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("VAULT_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		AllowedCIDRS: parseAllowedIPs(getenv("VAULT_ALLOWED_CIDRS", "")),
		AllowedHosts: splitAndTrim(getenv("VAULT_ALLOWED_HOSTS", "")),
		TrustProxy:   mustBool("VAULT_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("VAULT_CORS_ORIGINS", "*")),

		CaptureBurst:      getenvInt("VAULT_CAPTURE_BURST", 30),
		CaptureRatePerMin: getenvInt("VAULT_CAPTURE_RATE_PER_MIN", 60),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	return cfg
}

// Validate reports configuration combinations that cannot work.
func (c *Config) Validate() error {
	switch c.StorageMode {
	case ModeFile, ModeLocal, ModeSQLite, ModeMemory:
	case ModeRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("VAULT_REMOTE_URL is required when VAULT_STORAGE_MODE=%s", ModeRemote)
		}
	case ModeRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("VAULT_REDIS_ADDR is required when VAULT_STORAGE_MODE=%s", ModeRedis)
		}
	default:
		return fmt.Errorf("unknown VAULT_STORAGE_MODE %q", c.StorageMode)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("VAULT_RETRY_ATTEMPTS must be >= 1, got %d", c.RetryAttempts)
	}
	if c.MediaConcurrency < 1 {
		return fmt.Errorf("VAULT_MEDIA_CONCURRENCY must be >= 1, got %d", c.MediaConcurrency)
	}
	return nil
}

// RedisEnabled reports whether a redis server was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// LogFields describes the configuration for a debug log line. Secrets are
// redacted.
func (c *Config) LogFields() []logger.Field {
	return []logger.Field{
		logger.String("listen_port", c.ListenPort),
		logger.String("storage_mode", c.StorageMode),
		logger.String("db_file", c.DBFile),
		logger.String("media_dir", c.MediaDir),
		logger.String("sqlite_path", c.SQLitePath),
		logger.String("remote_url", c.RemoteURL),
		logger.String("lookup_url", c.LookupURL),
		logger.Duration("request_timeout", c.RequestTimeout),
		logger.Duration("verify_interval", c.VerifyInterval),
		logger.Int("media_concurrency", c.MediaConcurrency),
		logger.Bool("auto_hashtags", c.AutoHashtags),
		logger.String("redis_addr", c.RedisAddr),
		logger.String("redis_user", c.RedisUser),
		logger.String("redis_password", redact(c.RedisPassword)),
		logger.Strings("allowed_cidrs", c.AllowedCIDRS),
		logger.Strings("cors_origins", c.CORSOrigins),
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
