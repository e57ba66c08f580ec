package domain

import (
	"sort"
	"strings"
	"time"
)

// ─── Quest Types ────────────────────────────────────────────────────────────

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestCorrupted QuestStatus = "corrupted"
)

// CorruptionThresholdDays is how many calendar days overdue a quest may
// be before it corrupts. A corrupted quest is still completable but
// yields no reward.
const CorruptionThresholdDays = 5

// TempIDPrefix marks client-assigned placeholder ids awaiting gateway
// confirmation. Placeholders are never written back to the gateway.
const TempIDPrefix = "temp-"

// Quest is a single unit of real-world work with an XP bounty.
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	XPReward    int         `json:"xp_reward"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
	Status      QuestStatus `json:"status"`
	DaysOverdue int         `json:"days_overdue"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// IsTempID reports whether the id is a client-assigned placeholder.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// OverdueAt reports whether the quest's exact deadline instant has passed.
func (q Quest) OverdueAt(now time.Time) bool {
	return q.Deadline != nil && now.After(*q.Deadline)
}

// SortByDeadline orders quests soonest deadline first; quests without a
// deadline sink to the bottom. The sort is stable so equal deadlines
// keep their insertion order.
func SortByDeadline(quests []Quest) {
	sort.SliceStable(quests, func(i, j int) bool {
		a, b := quests[i].Deadline, quests[j].Deadline
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// ─── Quest Mutations ────────────────────────────────────────────────────────

// QuestDraft carries the caller-supplied fields for a new quest.
type QuestDraft struct {
	Title    string     `json:"title"`
	XPReward int        `json:"xp_reward"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// QuestPatch is a partial update applied to a quest document.
// Nil fields are left untouched; ClearDeadline removes the deadline.
type QuestPatch struct {
	Title         *string      `json:"title,omitempty"`
	XPReward      *int         `json:"xp_reward,omitempty"`
	Deadline      *time.Time   `json:"deadline,omitempty"`
	ClearDeadline bool         `json:"clear_deadline,omitempty"`
	Status        *QuestStatus `json:"status,omitempty"`
	DaysOverdue   *int         `json:"days_overdue,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// Apply merges the patch into the quest in place.
func (p QuestPatch) Apply(q *Quest) {
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.XPReward != nil {
		q.XPReward = *p.XPReward
	}
	if p.ClearDeadline {
		q.Deadline = nil
	} else if p.Deadline != nil {
		q.Deadline = p.Deadline
	}
	if p.Status != nil {
		q.Status = *p.Status
	}
	if p.DaysOverdue != nil {
		q.DaysOverdue = *p.DaysOverdue
	}
	if p.CompletedAt != nil {
		q.CompletedAt = p.CompletedAt
	}
}

// ─── Goal Decomposition ─────────────────────────────────────────────────────

// GoalStep is one micro-quest produced by the goal planner.
type GoalStep struct {
	Title              string `json:"title"`
	XP                 int    `json:"xp"`
	DeadlineOffsetDays int    `json:"deadlineOffset"`
}
