package quest

import (
	"context"
	"log"

	"github.com/spirequest/spire/internal/domain"
	"github.com/spirequest/spire/internal/infra/observability"
)

// ─── Entropy Decay Pass ─────────────────────────────────────────────────────
// Runs on every load. Idempotent within a calendar day: lastDecayDate
// and per-quest persisted daysOverdue markers guarantee that reloading
// never double-charges. A quest is charged when a new day has started
// (daily escalation) or when it has just crossed its deadline and was
// never charged before (first hit).

// CheckDecay reconciles overdue penalties. It waits for the progression
// ledger's one-time load so lastDecayDate is trustworthy before any
// charge is computed.
func (s *Service) CheckDecay(ctx context.Context) error {
	if err := s.ledger.AwaitReady(ctx); err != nil {
		return err
	}

	now := s.now()
	today := domain.DateString(now)
	snap := s.ledger.Snapshot()
	isNewDay := snap.LastDecayDate != today

	s.mu.Lock()
	newlyOverdue := false
	for i := range s.quests {
		if s.quests[i].OverdueAt(now) && s.quests[i].DaysOverdue == 0 {
			newlyOverdue = true
			break
		}
	}

	if !isNewDay && !newlyOverdue {
		s.mu.Unlock()
		observability.DecayPasses.WithLabelValues("noop").Inc()
		return nil
	}

	if isNewDay {
		s.ledger.MarkDecayDate(today)
	}

	totalPenalty := 0
	for i := range s.quests {
		q := &s.quests[i]
		if !q.OverdueAt(now) {
			continue
		}

		days := domain.CalendarDaysBetween(*q.Deadline, now)
		if days < 1 {
			days = 1
		}
		wasAlreadyOverdue := q.DaysOverdue > 0
		q.DaysOverdue = days

		if isNewDay || !wasAlreadyOverdue {
			totalPenalty += domain.DecayPenalty(snap.Level, days)
		}
		if days >= domain.CorruptionThresholdDays {
			q.Status = domain.QuestCorrupted
		}
	}

	// Collect the overdue markers to persist once the lock is released.
	type overdueMark struct {
		id   string
		days int
	}
	var marks []overdueMark
	for i := range s.quests {
		q := s.quests[i]
		if q.DaysOverdue > 0 && !domain.IsTempID(q.ID) {
			marks = append(marks, overdueMark{id: q.ID, days: q.DaysOverdue})
		}
	}
	s.mu.Unlock()

	if totalPenalty > 0 {
		s.ledger.ResetStreak()
		if err := s.ledger.ApplyDecay(ctx, totalPenalty); err != nil {
			log.Printf("[quest] apply decay penalty: %v", err)
		}

		// One miss mark per triggering pass, not one per quest.
		if s.userID != "" {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			err := s.history.IncrementMissed(cctx, s.userID, today)
			cancel()
			if err != nil {
				log.Printf("[quest] record miss mark: %v", err)
				observability.SyncFailures.WithLabelValues("history_missed").Inc()
			}
		}
		observability.DecayPasses.WithLabelValues("charged").Inc()
	} else {
		// No charge, but the day marker still has to land.
		if err := s.ledger.Save(ctx); err != nil {
			log.Printf("[quest] persist decay marker: %v", err)
		}
		observability.DecayPasses.WithLabelValues("marker_only").Inc()
	}

	// Persist per-quest overdue counts so the next load does not treat
	// them as newly overdue again.
	if s.userID != "" {
		for _, m := range marks {
			days := m.days
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			err := s.store.UpdateQuest(cctx, s.userID, m.id, domain.QuestPatch{DaysOverdue: &days})
			cancel()
			if err != nil {
				log.Printf("[quest] persist overdue count for %s: %v", m.id, err)
				observability.SyncFailures.WithLabelValues("persist_overdue").Inc()
			}
		}
	}
	return nil
}

// RefreshOverdueStatus recomputes daysOverdue and corruption from the
// exact deadline instant. Purely visual: it never touches PlayerState,
// history, or the gateway, and runs on every load after the decay pass.
func (s *Service) RefreshOverdueStatus() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quests {
		q := &s.quests[i]
		if q.Deadline == nil {
			continue
		}
		if now.After(*q.Deadline) {
			days := domain.CalendarDaysBetween(*q.Deadline, now)
			if days < 1 {
				days = 1
			}
			q.DaysOverdue = days
			if days >= domain.CorruptionThresholdDays {
				q.Status = domain.QuestCorrupted
			}
		} else {
			q.DaysOverdue = 0
		}
	}
}
