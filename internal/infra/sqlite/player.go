package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spirequest/spire/internal/domain"
)

// ─── Player Operations ──────────────────────────────────────────────────────

// GetPlayer loads the progression document for a user.
func (db *DB) GetPlayer(ctx context.Context, userID string) (domain.PlayerState, error) {
	var p domain.PlayerState
	var capped int
	err := db.db.QueryRowContext(ctx, `
		SELECT level, current_xp, streak, total_xp_lost, is_level_capped,
		       boss_xp_earned, highest_level, tower_theme, page_theme,
		       last_active_date, last_decay_date
		FROM players WHERE user_id = ?
	`, userID).Scan(
		&p.Level, &p.CurrentXP, &p.Streak, &p.TotalXPLost, &capped,
		&p.BossXPEarned, &p.HighestLevel, &p.TowerTheme, &p.PageTheme,
		&p.LastActiveDate, &p.LastDecayDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerState{}, domain.ErrPlayerNotFound
	}
	if err != nil {
		return domain.PlayerState{}, err
	}
	p.IsLevelCapped = capped == 1
	return p, nil
}

// CreatePlayer writes the initial document. Set-if-absent: an existing
// row is left untouched so two racing first loads cannot reset a player.
func (db *DB) CreatePlayer(ctx context.Context, userID string, state domain.PlayerState) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO players (
			user_id, level, current_xp, streak, total_xp_lost, is_level_capped,
			boss_xp_earned, highest_level, tower_theme, page_theme,
			last_active_date, last_decay_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, state.Level, state.CurrentXP, state.Streak, state.TotalXPLost,
		boolInt(state.IsLevelCapped), state.BossXPEarned, state.HighestLevel,
		state.TowerTheme, state.PageTheme, state.LastActiveDate, state.LastDecayDate)
	return err
}

// UpdatePlayer overwrites the document, creating it if missing.
// Last write wins.
func (db *DB) UpdatePlayer(ctx context.Context, userID string, state domain.PlayerState) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO players (
			user_id, level, current_xp, streak, total_xp_lost, is_level_capped,
			boss_xp_earned, highest_level, tower_theme, page_theme,
			last_active_date, last_decay_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			level            = excluded.level,
			current_xp       = excluded.current_xp,
			streak           = excluded.streak,
			total_xp_lost    = excluded.total_xp_lost,
			is_level_capped  = excluded.is_level_capped,
			boss_xp_earned   = excluded.boss_xp_earned,
			highest_level    = excluded.highest_level,
			tower_theme      = excluded.tower_theme,
			page_theme       = excluded.page_theme,
			last_active_date = excluded.last_active_date,
			last_decay_date  = excluded.last_decay_date,
			updated_at       = datetime('now')
	`, userID, state.Level, state.CurrentXP, state.Streak, state.TotalXPLost,
		boolInt(state.IsLevelCapped), state.BossXPEarned, state.HighestLevel,
		state.TowerTheme, state.PageTheme, state.LastActiveDate, state.LastDecayDate)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
