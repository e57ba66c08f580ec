package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spirequest/spire/internal/domain"
)

// ─── Account Operations ─────────────────────────────────────────────────────

// CreateUser registers an account. Returns ErrUserExists when the
// username is taken.
func (db *DB) CreateUser(ctx context.Context, id, username, passwordHash string) error {
	res, err := db.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, username, password_hash) VALUES (?, ?, ?)
	`, id, username, passwordHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserExists
	}
	return nil
}

// UserByName returns the account id and password hash for a username.
func (db *DB) UserByName(ctx context.Context, username string) (id, passwordHash string, err error) {
	err = db.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM users WHERE username = ?
	`, username).Scan(&id, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", domain.ErrInvalidCredentials
	}
	return id, passwordHash, err
}

// ─── Session Operations ─────────────────────────────────────────────────────

// CreateSession stores a bearer token with its expiry.
func (db *DB) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)
	`, token, userID, expiresAt.UTC().Format(time.RFC3339))
	return err
}

// SessionUser resolves a bearer token to a user id. An expired token is
// deleted on sight and reported as ErrSessionExpired.
func (db *DB) SessionUser(ctx context.Context, token string, now time.Time) (string, error) {
	var userID, expiresStr string
	err := db.db.QueryRowContext(ctx, `
		SELECT user_id, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&userID, &expiresStr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}

	expires, err := time.Parse(time.RFC3339, expiresStr)
	if err != nil || now.After(expires) {
		_, _ = db.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return "", domain.ErrSessionExpired
	}
	return userID, nil
}

// DeleteSession revokes one bearer token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// PurgeExpiredSessions removes every token past its expiry.
func (db *DB) PurgeExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`,
		now.UTC().Format(time.RFC3339))
	return err
}
