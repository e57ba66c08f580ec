package sqlite

import (
	"context"

	"github.com/spirequest/spire/internal/domain"
)

// ─── History Ledger Operations ──────────────────────────────────────────────

// History returns the full ledger for a user: date keys for completions,
// "missed_" prefixed keys for decay marks.
func (db *DB) History(ctx context.Context, userID string) (domain.History, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT key, count FROM history WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := domain.History{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		history[key] = count
	}
	return history, rows.Err()
}

// IncrementCompleted bumps the completion counter for a local date.
// The upsert is a single statement, so concurrent sessions cannot lose
// increments.
func (db *DB) IncrementCompleted(ctx context.Context, userID, date string) error {
	return db.incrementKey(ctx, userID, date)
}

// IncrementMissed bumps the miss counter for a local date.
func (db *DB) IncrementMissed(ctx context.Context, userID, date string) error {
	return db.incrementKey(ctx, userID, domain.MissedKey(date))
}

func (db *DB) incrementKey(ctx context.Context, userID, key string) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO history (user_id, key, count) VALUES (?, ?, 1)
		ON CONFLICT(user_id, key) DO UPDATE SET count = count + 1
	`, userID, key)
	return err
}
