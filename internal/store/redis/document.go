package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/retry"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
)

// DefaultLookupTTL is the default TTL for cached lookups (24 hours)
const DefaultLookupTTL = 24 * time.Hour

// Store keeps the document and the lookup cache in Redis
type Store struct {
	client *redis.Client
	policy retry.Policy
	log    logger.Logger
	now    func() time.Time
}

// NewStore creates a new Redis store on an established client
func NewStore(client *redis.Client, r persist.Retry, log logger.Logger) *Store {
	log = log.With(logger.String("store", "redis"))
	return &Store{
		client: client,
		policy: persist.Policy(r, IsBusy, log),
		log:    log,
		now:    time.Now,
	}
}

// IsBusy reports the transient replies of a server that is loading,
// running a script, or resharding.
func IsBusy(err error) bool {
	var re redis.Error
	if !errors.As(err, &re) {
		return false
	}
	msg := re.Error()
	for _, prefix := range []string{"BUSY", "LOADING", "TRYAGAIN"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// Read retrieves the document, seeding it on first access
func (s *Store) Read(ctx context.Context) (*domain.Document, error) {
	data, err := retry.DoValue(ctx, s.policy, func(ctx context.Context) ([]byte, error) {
		return s.client.Get(ctx, DocumentKey()).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		doc := domain.NewDocument(s.now())
		if err := s.Write(ctx, doc); err != nil {
			return nil, err
		}
		s.log.Info("seeded new document")
		return doc, nil
	}
	if err != nil {
		return nil, persist.Classify("read document", err)
	}

	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, persist.Classify("read document", err)
	}
	return doc, nil
}

// Write stores the whole document without expiry
func (s *Store) Write(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return persist.Classify("write document", err)
	}

	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.client.Set(ctx, DocumentKey(), data, 0).Err()
	})
	return persist.Classify("write document", err)
}

// Close is a no-op; the client is owned by whoever connected it.
func (s *Store) Close() error { return nil }
