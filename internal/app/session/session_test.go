package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spirequest/spire/internal/app/progression"
	"github.com/spirequest/spire/internal/app/quest"
	"github.com/spirequest/spire/internal/domain"
)

type memGateway struct {
	mu      sync.Mutex
	players map[string]domain.PlayerState
	quests  map[string][]domain.Quest
	history map[string]domain.History
	nextID  int
}

func newMemGateway() *memGateway {
	return &memGateway{
		players: map[string]domain.PlayerState{},
		quests:  map[string][]domain.Quest{},
		history: map[string]domain.History{},
	}
}

func (g *memGateway) GetPlayer(ctx context.Context, userID string) (domain.PlayerState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[userID]
	if !ok {
		return domain.PlayerState{}, domain.ErrPlayerNotFound
	}
	return p, nil
}

func (g *memGateway) CreatePlayer(ctx context.Context, userID string, state domain.PlayerState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[userID]; !ok {
		g.players[userID] = state
	}
	return nil
}

func (g *memGateway) UpdatePlayer(ctx context.Context, userID string, state domain.PlayerState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players[userID] = state
	return nil
}

func (g *memGateway) ActiveQuests(ctx context.Context, userID string) ([]domain.Quest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Quest
	for _, q := range g.quests[userID] {
		if q.Status != domain.QuestCompleted {
			out = append(out, q)
		}
	}
	return out, nil
}

func (g *memGateway) CreateQuest(ctx context.Context, userID string, q domain.Quest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	q.ID = fmt.Sprintf("q-%d", g.nextID)
	g.quests[userID] = append(g.quests[userID], q)
	return q.ID, nil
}

func (g *memGateway) UpdateQuest(ctx context.Context, userID, questID string, patch domain.QuestPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.quests[userID] {
		if g.quests[userID][i].ID == questID {
			patch.Apply(&g.quests[userID][i])
			return nil
		}
	}
	return domain.ErrQuestNotFound
}

func (g *memGateway) DeleteQuest(ctx context.Context, userID, questID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	qs := g.quests[userID]
	for i := range qs {
		if qs[i].ID == questID {
			g.quests[userID] = append(qs[:i], qs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (g *memGateway) History(ctx context.Context, userID string) (domain.History, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := domain.History{}
	for k, v := range g.history[userID] {
		out[k] = v
	}
	return out, nil
}

func (g *memGateway) IncrementCompleted(ctx context.Context, userID, date string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.history[userID] == nil {
		g.history[userID] = domain.History{}
	}
	g.history[userID][date]++
	return nil
}

func (g *memGateway) IncrementMissed(ctx context.Context, userID, date string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.history[userID] == nil {
		g.history[userID] = domain.History{}
	}
	g.history[userID][domain.MissedKey(date)]++
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestManagerWithClock(g *memGateway, clk *fakeClock) *Manager {
	return NewManager(g, g, g,
		progression.Config{SyncTimeout: time.Second, Now: clk.now},
		quest.Config{SyncTimeout: time.Second, Now: clk.now},
	)
}

func newTestManager(g *memGateway) *Manager {
	return newTestManagerWithClock(g, &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)})
}

func TestGet_ConstructsAndSeedsNewPlayer(t *testing.T) {
	g := newMemGateway()
	m := newTestManager(g)

	s, err := m.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if s.UserID != "u1" {
		t.Errorf("UserID = %q", s.UserID)
	}
	if got := s.Ledger.State(); got != progression.StateReady {
		t.Errorf("ledger state = %v, want Ready", got)
	}
	if p := s.Ledger.Snapshot(); p.Level != 5 || p.CurrentXP != 50 {
		t.Errorf("snapshot = %+v, want fresh defaults", p)
	}
	if _, ok := g.players["u1"]; !ok {
		t.Error("defaults not persisted for new player")
	}
}

func TestGet_ReturnsCachedSession(t *testing.T) {
	m := newTestManager(newMemGateway())
	ctx := context.Background()

	a, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second Get() built a new session")
	}
}

func TestGet_SeparateUsersSeparateSessions(t *testing.T) {
	m := newTestManager(newMemGateway())
	ctx := context.Background()

	a, _ := m.Get(ctx, "u1")
	b, _ := m.Get(ctx, "u2")
	if a == b {
		t.Error("sessions shared across users")
	}
}

func TestDrop_EvictsSession(t *testing.T) {
	m := newTestManager(newMemGateway())
	ctx := context.Background()

	a, _ := m.Get(ctx, "u1")
	m.Drop("u1")
	if _, ok := m.Peek("u1"); ok {
		t.Error("Peek() found dropped session")
	}
	b, _ := m.Get(ctx, "u1")
	if a == b {
		t.Error("Get() after Drop() returned the stale session")
	}
}

func TestGet_RechargesDecayAcrossDays(t *testing.T) {
	g := newMemGateway()
	day1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	clk := &fakeClock{t: day1}
	m := newTestManagerWithClock(g, clk)
	ctx := context.Background()

	state := domain.DefaultPlayerState()
	state.LastDecayDate = domain.DateString(day1) // decay already ran today
	g.players["u1"] = state
	deadline := day1.AddDate(0, 0, -1)
	g.quests["u1"] = []domain.Quest{{
		ID: "q-1", Title: "Rotting", XPReward: 10,
		Status: domain.QuestActive, Deadline: &deadline,
	}}

	// Day one: the quest just crossed its deadline, first hit charges
	// one day's rot (level 5: round(200·0.10) = 20).
	s, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got := s.Ledger.Snapshot().TotalXPLost; got != 20 {
		t.Fatalf("TotalXPLost after day one = %d, want 20", got)
	}

	// Midnight rolls over. The cached session must still be charged the
	// escalation on its next request (day two: rate 0.15 ⇒ 30 more).
	clk.advance(24 * time.Hour)
	if _, err := m.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get() after midnight error: %v", err)
	}
	p := s.Ledger.Snapshot()
	if p.TotalXPLost != 50 {
		t.Errorf("TotalXPLost after day two = %d, want 50 (20 + 30 escalation)", p.TotalXPLost)
	}
	if got := p.LastDecayDate; got != domain.DateString(clk.now()) {
		t.Errorf("LastDecayDate = %q, want advanced to the new day", got)
	}

	// A second request on the same day charges nothing more.
	if _, err := m.Get(ctx, "u1"); err != nil {
		t.Fatalf("repeat Get() error: %v", err)
	}
	if got := s.Ledger.Snapshot().TotalXPLost; got != 50 {
		t.Errorf("TotalXPLost after repeat request = %d, want unchanged 50", got)
	}
}

func TestGet_ConcurrentFirstUseWaitsForReady(t *testing.T) {
	m := newTestManager(newMemGateway())
	ctx := context.Background()

	const workers = 8
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "u1")
			if err != nil {
				t.Errorf("Get() error: %v", err)
				return
			}
			if got := s.Ledger.State(); got != progression.StateReady {
				t.Errorf("ledger state = %v, want Ready", got)
			}
			if p := s.Ledger.Snapshot(); p.Level != 5 || p.CurrentXP != 50 {
				t.Errorf("snapshot = %+v, want hydrated defaults", p)
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("worker %d got a different session instance", i)
		}
	}
}

func TestSessionSurvivesReload(t *testing.T) {
	g := newMemGateway()
	m := newTestManager(g)
	ctx := context.Background()

	s, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Quests.Add(ctx, domain.QuestDraft{Title: "Persist me", XPReward: 15}); err != nil {
		t.Fatal(err)
	}

	m.Drop("u1")
	s2, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	quests := s2.Quests.Quests()
	if len(quests) != 1 || quests[0].Title != "Persist me" {
		t.Errorf("reloaded quests = %+v", quests)
	}
}
