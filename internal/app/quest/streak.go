package quest

import (
	"context"
	"log"

	"github.com/spirequest/spire/internal/domain"
	"github.com/spirequest/spire/internal/infra/observability"
)

// ─── Streak Reconciliation ──────────────────────────────────────────────────

// HistoryLedger returns the full heatmap ledger for the user.
func (s *Service) HistoryLedger(ctx context.Context) (domain.History, error) {
	if s.userID == "" {
		return domain.History{}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.history.History(cctx, s.userID)
}

// ComputeStreak rebuilds the streak from the history ledger (backward
// walk from today, miss marks cancel completed days) and writes the
// result into the progression ledger. An empty history leaves the
// loaded streak untouched, matching the behavior before the ledger's
// first write.
func (s *Service) ComputeStreak(ctx context.Context) error {
	if s.userID == "" {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	history, err := s.history.History(cctx, s.userID)
	cancel()
	if err != nil {
		log.Printf("[quest] load history for %s: %v", s.userID, err)
		observability.SyncFailures.WithLabelValues("load_history").Inc()
		return err
	}
	if len(history) == 0 {
		return nil
	}

	streak := domain.StreakFrom(history, s.now())
	return s.ledger.SetStreak(ctx, streak)
}
