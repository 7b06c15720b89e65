package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheLookup stores a raw status lookup response
func (s *Store) CacheLookup(ctx context.Context, statusID string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultLookupTTL
	}
	if err := s.client.Set(ctx, LookupKey(statusID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache lookup: %w", err)
	}
	return nil
}

// GetCachedLookup retrieves a cached lookup. A miss returns nil, nil.
func (s *Store) GetCachedLookup(ctx context.Context, statusID string) ([]byte, error) {
	payload, err := s.client.Get(ctx, LookupKey(statusID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached lookup: %w", err)
	}
	return payload, nil
}

// InvalidateLookup removes a cached lookup
func (s *Store) InvalidateLookup(ctx context.Context, statusID string) error {
	if err := s.client.Del(ctx, LookupKey(statusID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate lookup: %w", err)
	}
	return nil
}

// FlushLookups removes all cached lookups and returns how many were dropped
func (s *Store) FlushLookups(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixLookup+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete lookup key: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to flush lookups: %w", err)
	}
	return removed, nil
}
