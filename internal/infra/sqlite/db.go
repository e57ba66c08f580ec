// Package sqlite is the persistence gateway. One database file holds
// every per-user document: the player progression state, the quest
// collection, the history ledger, and the auth tables.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and exposes typed operations.
type DB struct {
	db *sql.DB
}

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Player progression, one row per user
		`CREATE TABLE IF NOT EXISTS players (
			user_id          TEXT PRIMARY KEY,
			level            INTEGER NOT NULL DEFAULT 5,
			current_xp       INTEGER NOT NULL DEFAULT 50,
			streak           INTEGER NOT NULL DEFAULT 0,
			total_xp_lost    INTEGER NOT NULL DEFAULT 0,
			is_level_capped  INTEGER NOT NULL DEFAULT 0,
			boss_xp_earned   INTEGER NOT NULL DEFAULT 0,
			highest_level    INTEGER NOT NULL DEFAULT 5,
			tower_theme      TEXT NOT NULL DEFAULT '',
			page_theme       TEXT NOT NULL DEFAULT '',
			last_active_date TEXT NOT NULL DEFAULT '',
			last_decay_date  TEXT NOT NULL DEFAULT '',
			updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Quest collection
		`CREATE TABLE IF NOT EXISTS quests (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			title        TEXT NOT NULL,
			xp_reward    INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'active',
			deadline     TEXT,
			days_overdue INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_user_status ON quests(user_id, status)`,

		// History ledger: one counter per (user, key). Keys are local
		// YYYY-MM-DD dates plus their "missed_" prefixed variants.
		`CREATE TABLE IF NOT EXISTS history (
			user_id TEXT NOT NULL,
			key     TEXT NOT NULL,
			count   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, key)
		)`,

		// Accounts and bearer sessions
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
	}
}

// Open creates or opens the database under dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "spire.db")

	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY races between the API and the decay pass.
	conn.SetMaxOpenConns(1)

	for i, stmt := range Migrations() {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return &DB{db: conn}, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}
