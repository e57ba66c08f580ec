package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spirequest/spire/internal/domain"
)

type memStore struct {
	users    map[string][2]string // username -> (id, hash)
	sessions map[string][2]any    // token -> (userID, expiresAt)
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string][2]string{},
		sessions: map[string][2]any{},
	}
}

func (m *memStore) CreateUser(ctx context.Context, id, username, hash string) error {
	if _, ok := m.users[username]; ok {
		return domain.ErrUserExists
	}
	m.users[username] = [2]string{id, hash}
	return nil
}

func (m *memStore) UserByName(ctx context.Context, username string) (string, string, error) {
	u, ok := m.users[username]
	if !ok {
		return "", "", domain.ErrInvalidCredentials
	}
	return u[0], u[1], nil
}

func (m *memStore) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	m.sessions[token] = [2]any{userID, expiresAt}
	return nil
}

func (m *memStore) SessionUser(ctx context.Context, token string, now time.Time) (string, error) {
	s, ok := m.sessions[token]
	if !ok {
		return "", domain.ErrNotAuthenticated
	}
	if now.After(s[1].(time.Time)) {
		delete(m.sessions, token)
		return "", domain.ErrSessionExpired
	}
	return s[0].(string), nil
}

func (m *memStore) DeleteSession(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func newTestService(store Store, now time.Time) *Service {
	return New(store, Config{
		SessionTTL: time.Hour,
		BcryptCost: 4, // minimum cost keeps the tests fast
		Now:        func() time.Time { return now },
	})
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), time.Now())

	id, err := svc.Register(ctx, "climber", "tower-of-habit")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if id == "" {
		t.Fatal("Register() returned empty id")
	}

	loginID, token, err := svc.Login(ctx, "climber", "tower-of-habit")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if loginID != id {
		t.Errorf("Login() id = %q, want %q", loginID, id)
	}

	authID, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if authID != id {
		t.Errorf("Authenticate() id = %q, want %q", authID, id)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), time.Now())

	if _, err := svc.Register(ctx, "climber", "right"); err != nil {
		t.Fatal(err)
	}
	_, _, err := svc.Login(ctx, "climber", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestService(newMemStore(), time.Now())
	_, _, err := svc.Login(context.Background(), "ghost", "boo")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), time.Now())

	if _, err := svc.Register(ctx, "climber", "pw"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "climber", "pw2")
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("Register() = %v, want ErrUserExists", err)
	}
}

func TestRegister_EmptyCredentials(t *testing.T) {
	svc := newTestService(newMemStore(), time.Now())
	if _, err := svc.Register(context.Background(), "", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("empty username = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Register(context.Background(), "user", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("empty password = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticate_EmptyAndRevoked(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, time.Now())

	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("empty token = %v, want ErrNotAuthenticated", err)
	}

	if _, err := svc.Register(ctx, "climber", "pw"); err != nil {
		t.Fatal(err)
	}
	_, token, err := svc.Login(ctx, "climber", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("revoked token = %v, want ErrNotAuthenticated", err)
	}
}
