package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/vault"
)

// Maintainer is the part of the vault the verifier drives.
type Maintainer interface {
	VerifyMediaIntegrity(ctx context.Context) (*vault.IntegrityReport, error)
	PruneOrphans(ctx context.Context) ([]string, error)
	FetchPendingMedia(ctx context.Context) (*vault.PendingReport, error)
}

// VerifierOptions toggles the repairs run after each verification.
type VerifierOptions struct {
	Interval     time.Duration
	PruneOrphans bool
	FetchPending bool
}

// MediaVerifier periodically checks the media directory against the
// document and optionally repairs it.
type MediaVerifier struct {
	vault    Maintainer
	logger   logger.Logger
	opts     VerifierOptions
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMediaVerifier creates a new media verifier
func NewMediaVerifier(m Maintainer, log logger.Logger, opts VerifierOptions) *MediaVerifier {
	return &MediaVerifier{
		vault:  m,
		logger: log,
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start runs a first pass immediately, then one per interval.
// A zero interval disables the periodic passes.
func (mv *MediaVerifier) Start(ctx context.Context) error {
	if err := mv.Run(ctx); err != nil {
		mv.logger.Warn("initial media verification failed",
			logger.Error(err))
	}

	if mv.opts.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(mv.opts.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := mv.Run(ctx); err != nil {
					mv.logger.Error("media verification failed",
						logger.Error(err))
				}
			case <-mv.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the verifier
func (mv *MediaVerifier) Stop() {
	mv.stopOnce.Do(func() { close(mv.stopCh) })
}

// Run performs one verification pass followed by the enabled repairs.
func (mv *MediaVerifier) Run(ctx context.Context) error {
	report, err := mv.vault.VerifyMediaIntegrity(ctx)
	if err != nil {
		return err
	}

	if len(report.MissingFiles) > 0 || len(report.OrphanFiles) > 0 {
		mv.logger.Warn("media integrity issues found",
			logger.Int("bookmarks", report.TotalBookmarks),
			logger.Int("references", report.TotalMediaReferences),
			logger.Strings("missing", report.MissingFiles),
			logger.Int("orphans", len(report.OrphanFiles)))
	} else {
		mv.logger.Debug("media directory consistent",
			logger.Int("references", report.TotalMediaReferences))
	}

	if mv.opts.PruneOrphans && len(report.OrphanFiles) > 0 {
		if _, err := mv.vault.PruneOrphans(ctx); err != nil {
			mv.logger.Warn("failed to prune orphans", logger.Error(err))
		}
	}

	if mv.opts.FetchPending {
		if _, err := mv.vault.FetchPendingMedia(ctx); err != nil {
			mv.logger.Warn("failed to fetch pending media", logger.Error(err))
		}
	}

	return nil
}
