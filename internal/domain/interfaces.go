package domain

import "context"

// ─── Gateway Interfaces ─────────────────────────────────────────────────────
// These interfaces define the boundary to the persistence gateway and the
// goal planner. Infrastructure implements them; the application layer
// depends on them. Every call takes a context — callers wrap gateway
// calls with an advisory timeout and treat expiry as "backend offline".

// PlayerStore persists the singleton PlayerState document per user.
type PlayerStore interface {
	// GetPlayer returns ErrPlayerNotFound when no document exists yet.
	GetPlayer(ctx context.Context, userID string) (PlayerState, error)

	// CreatePlayer writes the initial document (set-if-absent semantics).
	CreatePlayer(ctx context.Context, userID string, state PlayerState) error

	// UpdatePlayer merge-updates the document, last write wins.
	UpdatePlayer(ctx context.Context, userID string, state PlayerState) error
}

// QuestStore persists the quest collection per user.
type QuestStore interface {
	// ActiveQuests returns every quest whose status is not completed.
	ActiveQuests(ctx context.Context, userID string) ([]Quest, error)

	// CreateQuest assigns a durable id and returns it.
	CreateQuest(ctx context.Context, userID string, q Quest) (string, error)

	// UpdateQuest applies a partial update to one quest document.
	UpdateQuest(ctx context.Context, userID, questID string, patch QuestPatch) error

	// DeleteQuest removes one quest document.
	DeleteQuest(ctx context.Context, userID, questID string) error
}

// HistoryStore persists the heatmap ledger per user. Increments must be
// atomic: concurrent sessions must not lose updates.
type HistoryStore interface {
	History(ctx context.Context, userID string) (History, error)
	IncrementCompleted(ctx context.Context, userID, date string) error
	IncrementMissed(ctx context.Context, userID, date string) error
}

// GoalPlanner decomposes a free-text goal into ordered micro-quests.
// Implementations never fail: any transport or parse error degrades to a
// deterministic single-step fallback, so callers always get a usable list.
type GoalPlanner interface {
	BreakDown(ctx context.Context, goal string) []GoalStep
}
