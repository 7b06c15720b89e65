package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/vault"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	Vault          *vault.Service   // collaborator boundary
	StorageMode    string           // active store implementation, reported by /api/infra
	MediaDir       string           // served under /media
	MaxUploadBytes int64            // multipart limit for /api/upload
	RedisClient    *redis.Client    // nil when redis is not configured
	AllowedHosts   []string         // Host headers accepted on /api/db
	AllowedCIDRS   []string         // IPs allowed on /api/db, maintenance and readyz
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins    []string         // origins allowed to call the capture endpoint
	CaptureBurst   int              // capture endpoint rate limit burst per IP
	CaptureRate    int              // capture endpoint refill per IP per minute
}
