package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Progression errors
	ErrNotReady       = errors.New("player state not initialized")
	ErrPlayerNotFound = errors.New("player state not found")

	// Quest errors
	ErrQuestNotFound = errors.New("quest not found")
	ErrInvalidQuest  = errors.New("quest is missing a title or positive XP reward")

	// Auth errors
	ErrNotAuthenticated   = errors.New("no authenticated user")
	ErrUserExists         = errors.New("user already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session token expired or unknown")
)
