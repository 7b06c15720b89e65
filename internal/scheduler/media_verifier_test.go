package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/vault"
)

type fakeVault struct {
	mu        sync.Mutex
	report    *vault.IntegrityReport
	verifyErr error
	verifies  int
	prunes    int
	fetches   int
}

func (f *fakeVault) VerifyMediaIntegrity(context.Context) (*vault.IntegrityReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies++
	return f.report, f.verifyErr
}

func (f *fakeVault) PruneOrphans(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes++
	return f.report.OrphanFiles, nil
}

func (f *fakeVault) FetchPendingMedia(context.Context) (*vault.PendingReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return &vault.PendingReport{}, nil
}

func (f *fakeVault) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifies, f.prunes, f.fetches
}

func TestMediaVerifier_Run(t *testing.T) {
	tests := []struct {
		name        string
		opts        VerifierOptions
		orphans     []string
		wantPrunes  int
		wantFetches int
	}{
		{name: "report only", orphans: []string{"a.jpg"}},
		{name: "prune orphans", opts: VerifierOptions{PruneOrphans: true}, orphans: []string{"a.jpg"}, wantPrunes: 1},
		{name: "nothing to prune", opts: VerifierOptions{PruneOrphans: true}},
		{name: "fetch pending", opts: VerifierOptions{FetchPending: true}, wantFetches: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := &fakeVault{report: &vault.IntegrityReport{OrphanFiles: tt.orphans}}
			mv := NewMediaVerifier(fv, logger.NewNop(), tt.opts)

			if err := mv.Run(context.Background()); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			_, prunes, fetches := fv.counts()
			if prunes != tt.wantPrunes {
				t.Errorf("Expected %d prunes, got %d", tt.wantPrunes, prunes)
			}
			if fetches != tt.wantFetches {
				t.Errorf("Expected %d fetches, got %d", tt.wantFetches, fetches)
			}
		})
	}
}

func TestMediaVerifier_RunError(t *testing.T) {
	fv := &fakeVault{verifyErr: errors.New("disk gone")}
	mv := NewMediaVerifier(fv, logger.NewNop(), VerifierOptions{PruneOrphans: true, FetchPending: true})

	if err := mv.Run(context.Background()); err == nil {
		t.Fatal("Expected an error")
	}
	if _, prunes, fetches := fv.counts(); prunes != 0 || fetches != 0 {
		t.Error("Repairs must not run after a failed verification")
	}
}

func TestMediaVerifier_StartStop(t *testing.T) {
	fv := &fakeVault{report: &vault.IntegrityReport{}}
	mv := NewMediaVerifier(fv, logger.NewNop(), VerifierOptions{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mv.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if verifies, _, _ := fv.counts(); verifies >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Verifier did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mv.Stop()
	mv.Stop()
}

func TestMediaVerifier_ZeroIntervalRunsOnce(t *testing.T) {
	fv := &fakeVault{report: &vault.IntegrityReport{}}
	mv := NewMediaVerifier(fv, logger.NewNop(), VerifierOptions{})

	if err := mv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if verifies, _, _ := fv.counts(); verifies != 1 {
		t.Errorf("Expected a single pass, got %d", verifies)
	}
	mv.Stop()
}
