package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spirequest/spire/internal/domain"
)

// ─── Quest Operations ───────────────────────────────────────────────────────

// ActiveQuests returns every non-completed quest for a user.
func (db *DB) ActiveQuests(ctx context.Context, userID string) ([]domain.Quest, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, title, xp_reward, status, deadline, days_overdue, created_at, completed_at
		FROM quests WHERE user_id = ? AND status != ?
	`, userID, string(domain.QuestCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		var q domain.Quest
		var status, createdAt string
		var deadline, completedAt sql.NullString
		if err := rows.Scan(&q.ID, &q.Title, &q.XPReward, &status, &deadline, &q.DaysOverdue, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		q.Status = domain.QuestStatus(status)
		q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if deadline.Valid {
			if t, err := time.Parse(time.RFC3339, deadline.String); err == nil {
				q.Deadline = &t
			}
		}
		if completedAt.Valid {
			if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
				q.CompletedAt = &t
			}
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

// CreateQuest inserts a quest and returns its durable id. Client-side
// placeholder ids are never persisted.
func (db *DB) CreateQuest(ctx context.Context, userID string, q domain.Quest) (string, error) {
	id := uuid.NewString()
	var deadline any
	if q.Deadline != nil {
		deadline = q.Deadline.Format(time.RFC3339)
	}
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO quests (id, user_id, title, xp_reward, status, deadline, days_overdue, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, userID, q.Title, q.XPReward, string(q.Status), deadline, q.DaysOverdue,
		q.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateQuest applies a partial update to one quest row. Only the fields
// set in the patch are touched.
func (db *DB) UpdateQuest(ctx context.Context, userID, questID string, patch domain.QuestPatch) error {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.XPReward != nil {
		sets = append(sets, "xp_reward = ?")
		args = append(args, *patch.XPReward)
	}
	if patch.ClearDeadline {
		sets = append(sets, "deadline = NULL")
	} else if patch.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, patch.Deadline.Format(time.RFC3339))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.DaysOverdue != nil {
		sets = append(sets, "days_overdue = ?")
		args = append(args, *patch.DaysOverdue)
	}
	if patch.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, patch.CompletedAt.Format(time.RFC3339))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID, questID)
	res, err := db.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE quests SET %s WHERE user_id = ? AND id = ?", strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestNotFound
	}
	return nil
}

// DeleteQuest removes one quest row.
func (db *DB) DeleteQuest(ctx context.Context, userID, questID string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM quests WHERE user_id = ? AND id = ?`, userID, questID)
	return err
}
