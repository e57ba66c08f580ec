// Package auth implements account registration and bearer-token sessions
// on top of the persistence gateway. Passwords are stored as bcrypt
// hashes; tokens are opaque UUIDs with a server-side expiry.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spirequest/spire/internal/domain"
)

// Store is the slice of the gateway the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, id, username, passwordHash string) error
	UserByName(ctx context.Context, username string) (id, passwordHash string, err error)
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	SessionUser(ctx context.Context, token string, now time.Time) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// Config controls auth behavior.
type Config struct {
	SessionTTL time.Duration    // bearer token lifetime
	BcryptCost int              // 0 means bcrypt.DefaultCost
	Now        func() time.Time // injectable clock
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SessionTTL: 30 * 24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
		Now:        time.Now,
	}
}

// Service issues and validates sessions.
type Service struct {
	store Store
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

// New creates an auth service over the gateway.
func New(store Store, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{store: store, ttl: cfg.SessionTTL, cost: cfg.BcryptCost, now: cfg.Now}
}

// Register creates an account and returns its user id.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	if err := s.store.CreateUser(ctx, id, username, string(hash)); err != nil {
		return "", err
	}
	return id, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (userID, token string, err error) {
	id, hash, err := s.store.UserByName(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", "", domain.ErrInvalidCredentials
	}

	token = uuid.NewString()
	expires := s.now().Add(s.ttl)
	if err := s.store.CreateSession(ctx, token, id, expires); err != nil {
		return "", "", fmt.Errorf("create session: %w", err)
	}
	return id, token, nil
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrNotAuthenticated
	}
	return s.store.SessionUser(ctx, token, s.now())
}

// Logout revokes a bearer token. Revoking an unknown token is not an
// error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
