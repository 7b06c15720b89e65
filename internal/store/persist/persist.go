// Package persist holds the retry and error classification shared by every
// document store implementation.
package persist

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/retry"
)

// Retry configures the contention retry applied around store I/O.
type Retry struct {
	Attempts  int           // total attempts, including the first one
	BaseDelay time.Duration // first wait, doubled on every further attempt
}

// DefaultRetry is five attempts starting at 50ms.
var DefaultRetry = Retry{Attempts: 5, BaseDelay: 50 * time.Millisecond}

// Policy builds the retry policy for one store. Only errors accepted by
// retryable are attempted again.
func Policy(r Retry, retryable func(error) bool, log logger.Logger) retry.Policy {
	if r.Attempts < 1 {
		r = DefaultRetry
	}
	return retry.Policy{
		MaxAttempts: r.Attempts,
		Backoff:     retry.Exponential(r.BaseDelay, 0),
		Retryable:   retryable,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			log.Warn("store contention, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("next_retry_in", wait),
				logger.Error(err))
		},
	}
}

// Classify maps a raw store failure onto the domain error kinds:
// exhausted retries become ErrStorageContention, anything else ErrPersistenceIO.
func Classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrStorageContention), errors.Is(err, domain.ErrPersistenceIO):
		return err
	case retry.IsExhausted(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageContention, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistenceIO, err)
	}
}
