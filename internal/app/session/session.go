// Package session assembles the per-user object graph. Each
// authenticated user gets one Session holding their progression ledger
// and quest service; the Manager constructs it on first use and tears
// it down on logout.
package session

import (
	"context"
	"sync"

	"github.com/spirequest/spire/internal/app/progression"
	"github.com/spirequest/spire/internal/app/quest"
	"github.com/spirequest/spire/internal/domain"
)

// Session is one user's live state.
type Session struct {
	UserID string
	Ledger *progression.Ledger
	Quests *quest.Service

	init    sync.Once
	initErr error
}

// Manager caches sessions keyed by user id. All methods are safe for
// concurrent use.
type Manager struct {
	mu        sync.Mutex
	players   domain.PlayerStore
	store     domain.QuestStore
	history   domain.HistoryStore
	ledgerCfg progression.Config
	questCfg  quest.Config
	sessions  map[string]*Session
}

// NewManager creates a session manager over the gateway.
func NewManager(players domain.PlayerStore, store domain.QuestStore, history domain.HistoryStore,
	ledgerCfg progression.Config, questCfg quest.Config) *Manager {
	return &Manager{
		players:   players,
		store:     store,
		history:   history,
		ledgerCfg: ledgerCfg,
		questCfg:  questCfg,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session for a user, constructing and loading it on
// first use. The one-time load runs under a sync.Once, so concurrent
// first requests block until the ledger is Ready instead of observing
// an un-hydrated session. Cached hits re-run the daily maintenance
// pass: the decay pass is idempotent within a calendar day, so a user
// who stays logged in is still charged escalation when midnight rolls
// over.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		ledger := progression.New(userID, m.players, m.ledgerCfg)
		s = &Session{
			UserID: userID,
			Ledger: ledger,
			Quests: quest.New(userID, ledger, m.store, m.history, m.questCfg),
		}
		m.sessions[userID] = s
	}
	m.mu.Unlock()

	firstUse := false
	s.init.Do(func() {
		firstUse = true
		// Init never leaves the ledger unready; a load failure surfaces
		// to the caller while the defaults remain serviceable.
		if err := s.Ledger.Init(ctx); err != nil {
			s.initErr = err
			return
		}
		s.initErr = s.Quests.Load(ctx)
	})
	if firstUse {
		return s, s.initErr
	}
	return s, s.Quests.Reconcile(ctx)
}

// Peek returns the session if it is already live, without constructing
// one.
func (m *Manager) Peek(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Drop evicts a user's session. The next Get rebuilds it from the
// gateway.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
