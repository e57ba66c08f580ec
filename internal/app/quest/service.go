// Package quest manages the quest lifecycle: optimistic local mutation
// over an in-memory working set, remote persistence through the gateway,
// and rollback on failure. It also runs the entropy decay pass and the
// streak reconciliation that happen on every load.
package quest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spirequest/spire/internal/app/progression"
	"github.com/spirequest/spire/internal/domain"
	"github.com/spirequest/spire/internal/infra/observability"
)

// Config controls quest service behavior.
type Config struct {
	SyncTimeout time.Duration    // advisory budget per gateway call
	Now         func() time.Time // injectable clock
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SyncTimeout: 10 * time.Second,
		Now:         time.Now,
	}
}

// Service owns a user's active quest working set. Local mutations are
// applied synchronously and confirmed or rolled back when the gateway
// responds, so the list is always immediately consistent for the caller
// while the remote copy converges.
type Service struct {
	mu      sync.Mutex
	userID  string
	ledger  *progression.Ledger
	store   domain.QuestStore
	history domain.HistoryStore
	timeout time.Duration
	now     func() time.Time
	quests  []domain.Quest
}

// New creates a quest service bound to one user session.
func New(userID string, ledger *progression.Ledger, store domain.QuestStore, history domain.HistoryStore, cfg Config) *Service {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = DefaultConfig().SyncTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		userID:  userID,
		ledger:  ledger,
		store:   store,
		history: history,
		timeout: cfg.SyncTimeout,
		now:     cfg.Now,
	}
}

// Quests returns a copy of the current working set.
func (s *Service) Quests() []domain.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Quest, len(s.quests))
	copy(out, s.quests)
	return out
}

// Load pulls all non-completed quests, sorts them by deadline, then runs
// the decay pass, the visual overdue refresh, and streak reconciliation.
// Gateway failure leaves the previous working set intact.
func (s *Service) Load(ctx context.Context) error {
	if s.userID == "" {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	quests, err := s.store.ActiveQuests(cctx, s.userID)
	cancel()
	if err != nil {
		log.Printf("[quest] load quests for %s: %v", s.userID, err)
		observability.SyncFailures.WithLabelValues("load_quests").Inc()
		return err
	}

	domain.SortByDeadline(quests)
	s.mu.Lock()
	s.quests = quests
	s.mu.Unlock()

	// Decay must see the raw persisted daysOverdue values, so it runs
	// before the visual refresh overwrites them.
	if err := s.CheckDecay(ctx); err != nil {
		log.Printf("[quest] decay pass: %v", err)
	}
	s.RefreshOverdueStatus()

	if err := s.ComputeStreak(ctx); err != nil {
		log.Printf("[quest] streak reconciliation: %v", err)
	}
	return nil
}

// Reconcile re-runs the daily maintenance that Load performs, without
// refetching the quest list: the decay pass, the visual overdue
// refresh, and (when a new calendar day has started) streak
// reconciliation. Safe and cheap to call on every request — the decay
// pass is idempotent within a calendar day and touches the gateway only
// when there is something to charge or mark.
func (s *Service) Reconcile(ctx context.Context) error {
	if s.userID == "" {
		return nil
	}

	newDay := s.ledger.Snapshot().LastDecayDate != domain.DateString(s.now())
	if err := s.CheckDecay(ctx); err != nil {
		return err
	}
	s.RefreshOverdueStatus()

	if newDay {
		if err := s.ComputeStreak(ctx); err != nil {
			log.Printf("[quest] streak reconciliation: %v", err)
		}
	}
	return nil
}

// Add optimistically inserts a placeholder quest with a temporary id,
// persists it, and swaps in the durable id on confirmation. On failure
// the placeholder is removed and the error returned to the caller.
func (s *Service) Add(ctx context.Context, draft domain.QuestDraft) (domain.Quest, error) {
	if s.userID == "" {
		return domain.Quest{}, nil
	}

	quest := domain.Quest{
		ID:        domain.TempIDPrefix + uuid.NewString(),
		Title:     draft.Title,
		XPReward:  draft.XPReward,
		Deadline:  draft.Deadline,
		Status:    domain.QuestActive,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.quests = append(s.quests, quest)
	domain.SortByDeadline(s.quests)
	s.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	id, err := s.store.CreateQuest(cctx, s.userID, quest)
	cancel()
	if err != nil {
		log.Printf("[quest] add quest for %s: %v", s.userID, err)
		observability.SyncFailures.WithLabelValues("create_quest").Inc()
		s.removeLocked(quest.ID)
		return domain.Quest{}, err
	}

	s.mu.Lock()
	for i := range s.quests {
		if s.quests[i].ID == quest.ID {
			s.quests[i].ID = id
			break
		}
	}
	s.mu.Unlock()

	quest.ID = id
	return quest, nil
}

// Complete removes the quest from the working set, grants the reward for
// non-corrupted quests (momentum multiplier on the base, early-bird
// bonus on top), marks the remote record completed, logs a completion
// tick, and re-derives the streak. The optimistic removal is not rolled
// back on remote failure: the quest was done, losing the record beats
// resurrecting finished work.
func (s *Service) Complete(ctx context.Context, questID string) error {
	s.mu.Lock()
	idx := s.indexOf(questID)
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrQuestNotFound
	}
	quest := s.quests[idx]
	s.quests = append(s.quests[:idx], s.quests[idx+1:]...)
	s.mu.Unlock()

	now := s.now()
	corrupted := quest.Status == domain.QuestCorrupted

	if !corrupted {
		daysEarly := 0
		if quest.Deadline != nil {
			daysEarly = domain.CalendarDaysBetween(now, *quest.Deadline)
		}
		snap := s.ledger.Snapshot()
		reward := domain.CompletionReward(quest.XPReward, snap.Streak, daysEarly)
		if err := s.ledger.AddXP(ctx, reward); err != nil {
			log.Printf("[quest] grant reward for %s: %v", questID, err)
		}
	}
	observability.QuestsCompleted.WithLabelValues(boolLabel(corrupted)).Inc()

	if s.userID != "" && !domain.IsTempID(quest.ID) {
		status := domain.QuestCompleted
		patch := domain.QuestPatch{Status: &status, CompletedAt: &now}
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.store.UpdateQuest(cctx, s.userID, quest.ID, patch)
		cancel()
		if err != nil {
			log.Printf("[quest] mark %s completed: %v", quest.ID, err)
			observability.SyncFailures.WithLabelValues("complete_quest").Inc()
		}
	}

	if s.userID != "" {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.history.IncrementCompleted(cctx, s.userID, domain.DateString(now))
		cancel()
		if err != nil {
			log.Printf("[quest] record completion tick: %v", err)
			observability.SyncFailures.WithLabelValues("history_completed").Inc()
		}
	}

	if err := s.ComputeStreak(ctx); err != nil {
		log.Printf("[quest] streak reconciliation: %v", err)
	}
	return nil
}

// Delete abandons a quest. An overdue quest costs one day's rot at its
// current lateness and resets the streak before it is removed.
func (s *Service) Delete(ctx context.Context, questID string) error {
	if s.userID == "" {
		return nil
	}

	s.mu.Lock()
	idx := s.indexOf(questID)
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrQuestNotFound
	}
	quest := s.quests[idx]
	s.mu.Unlock()

	if quest.DaysOverdue > 0 {
		penalty := domain.DecayPenalty(s.ledger.Snapshot().Level, quest.DaysOverdue)
		s.ledger.ResetStreak()
		if err := s.ledger.ApplyDecay(ctx, penalty); err != nil {
			log.Printf("[quest] abandonment penalty for %s: %v", questID, err)
		}
		observability.QuestsAbandoned.Inc()
	}

	s.removeLocked(questID)

	if !domain.IsTempID(quest.ID) {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.store.DeleteQuest(cctx, s.userID, quest.ID)
		cancel()
		if err != nil {
			log.Printf("[quest] delete %s: %v", quest.ID, err)
			observability.SyncFailures.WithLabelValues("delete_quest").Inc()
			return err
		}
	}
	return nil
}

// Edit applies a partial update optimistically, re-sorts, and persists.
// On remote failure the pre-edit snapshot is restored.
func (s *Service) Edit(ctx context.Context, questID string, patch domain.QuestPatch) error {
	if s.userID == "" {
		return nil
	}

	s.mu.Lock()
	idx := s.indexOf(questID)
	if idx == -1 {
		s.mu.Unlock()
		return domain.ErrQuestNotFound
	}
	snapshot := s.quests[idx]
	patch.Apply(&s.quests[idx])
	domain.SortByDeadline(s.quests)
	s.mu.Unlock()

	if domain.IsTempID(questID) {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.store.UpdateQuest(cctx, s.userID, questID, patch)
	cancel()
	if err != nil {
		log.Printf("[quest] edit %s: %v", questID, err)
		observability.SyncFailures.WithLabelValues("edit_quest").Inc()

		s.mu.Lock()
		if i := s.indexOf(questID); i != -1 {
			s.quests[i] = snapshot
			domain.SortByDeadline(s.quests)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

// indexOf returns the working-set index for a quest id. Caller holds mu.
func (s *Service) indexOf(questID string) int {
	for i := range s.quests {
		if s.quests[i].ID == questID {
			return i
		}
	}
	return -1
}

// removeLocked drops a quest from the working set by id.
func (s *Service) removeLocked(questID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(questID); i != -1 {
		s.quests = append(s.quests[:i], s.quests[i+1:]...)
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
