// Package progression owns the player's progression ledger: level, XP,
// streak, decay bookkeeping, and the boss gate. All mutations are
// serialized through a single lock per ledger and gated behind an
// explicit readiness state machine, so an un-hydrated in-memory default
// can never overwrite real persisted data and the idempotency keys
// (lastActiveDate, lastDecayDate) are safe under concurrent callers.
package progression

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/spirequest/spire/internal/domain"
	"github.com/spirequest/spire/internal/infra/observability"
)

// ─── Readiness State Machine ────────────────────────────────────────────────

// State tracks ledger hydration: Uninitialized → Loading → Ready.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

// Config controls ledger behavior.
type Config struct {
	SyncTimeout time.Duration    // advisory budget per gateway call
	Now         func() time.Time // injectable clock
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SyncTimeout: 10 * time.Second,
		Now:         time.Now,
	}
}

// Ledger is the per-user progression ledger. Construct one per session
// (on login), call Init once, and discard it on logout.
type Ledger struct {
	mu      sync.Mutex
	userID  string
	store   domain.PlayerStore
	timeout time.Duration
	now     func() time.Time

	state  State
	ready  chan struct{}
	player domain.PlayerState
}

// New creates a ledger in the Uninitialized state. Mutations fail with
// ErrNotReady until Init has been started.
func New(userID string, store domain.PlayerStore, cfg Config) *Ledger {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = DefaultConfig().SyncTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ledger{
		userID:  userID,
		store:   store,
		timeout: cfg.SyncTimeout,
		now:     cfg.Now,
		ready:   make(chan struct{}),
		player:  domain.DefaultPlayerState(),
	}
}

// State returns the current hydration state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Init performs the one-time load of the player document, creating it
// with defaults when absent. The ledger always transitions to Ready,
// even on gateway failure — callers proceed with best-effort local
// state and the next save retries. Calling Init again is a no-op.
func (l *Ledger) Init(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateUninitialized {
		l.mu.Unlock()
		return nil
	}
	l.state = StateLoading
	l.mu.Unlock()

	var loadErr error
	if l.userID != "" {
		cctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		state, err := l.store.GetPlayer(cctx, l.userID)
		switch {
		case err == nil:
			l.mu.Lock()
			l.player = state
			l.mu.Unlock()
		case errors.Is(err, domain.ErrPlayerNotFound):
			if cerr := l.store.CreatePlayer(cctx, l.userID, domain.DefaultPlayerState()); cerr != nil {
				log.Printf("[progression] create player %s: %v", l.userID, cerr)
				observability.SyncFailures.WithLabelValues("create_player").Inc()
				loadErr = cerr
			}
		default:
			log.Printf("[progression] load player %s: %v", l.userID, err)
			observability.SyncFailures.WithLabelValues("get_player").Inc()
			loadErr = err
		}
	}

	l.mu.Lock()
	l.state = StateReady
	l.mu.Unlock()
	close(l.ready)
	return loadErr
}

// AwaitReady blocks until the one-time load has finished. A ledger whose
// Init was never started fails fast with ErrNotReady instead of blocking
// forever.
func (l *Ledger) AwaitReady(ctx context.Context) error {
	l.mu.Lock()
	st := l.state
	l.mu.Unlock()
	if st == StateUninitialized {
		return domain.ErrNotReady
	}
	select {
	case <-l.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current player state.
func (l *Ledger) Snapshot() domain.PlayerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.player
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// AddXP grants XP. While the boss gate is armed, XP accrues toward the
// boss instead; once bossXPEarned meets the threshold the gate clears
// and the level finally increments. Otherwise XP is added, the daily
// streak is updated, and the leveling loop runs — except that reaching
// a multiple-of-10 level freezes XP at the cap and arms the gate.
func (l *Ledger) AddXP(ctx context.Context, amount int) error {
	if err := l.AwaitReady(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	observability.XPGained.Add(float64(amount))

	if l.player.IsLevelCapped {
		l.player.BossXPEarned += amount
		l.updateStreakLocked()

		if l.player.BossXPEarned >= domain.BossXPRequired(l.player.Level) {
			l.player.IsLevelCapped = false
			l.player.BossXPEarned = 0
			l.player.CurrentXP = 0
			l.player.Level++
			if l.player.Level > l.player.HighestLevel {
				l.player.HighestLevel = l.player.Level
			}
			observability.BossGatesCleared.Inc()
			observability.LevelUps.Inc()
			log.Printf("[progression] boss slain, level %d reached", l.player.Level)
		}

		l.saveLocked(ctx)
		return nil
	}

	l.player.CurrentXP += amount
	l.updateStreakLocked()

	for l.player.CurrentXP >= l.player.XPToNext() {
		// Milestone levels (10, 20, ...) are guarded by a boss gate.
		if (l.player.Level+1)%10 == 0 {
			l.player.CurrentXP = l.player.XPToNext()
			l.player.IsLevelCapped = true
			l.player.BossXPEarned = 0
			observability.BossGatesArmed.Inc()
			log.Printf("[progression] boss gate armed at level %d", l.player.Level)
			break
		}

		l.player.CurrentXP -= l.player.XPToNext()
		l.player.Level++
		if l.player.Level > l.player.HighestLevel {
			l.player.HighestLevel = l.player.Level
		}
		observability.LevelUps.Inc()
	}

	l.saveLocked(ctx)
	return nil
}

// ApplyDecay drains XP and de-levels while XP is negative, refunding the
// lower level's XP-to-next each step. Level 1 with zero XP is rock
// bottom — decay can never go below it.
func (l *Ledger) ApplyDecay(ctx context.Context, amount int) error {
	if err := l.AwaitReady(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	observability.XPLost.Add(float64(amount))

	l.player.CurrentXP -= amount
	l.player.TotalXPLost += amount

	for l.player.CurrentXP < 0 {
		if l.player.Level > 1 {
			l.player.Level--
			l.player.CurrentXP += domain.XPToNextLevel(l.player.Level)
			observability.LevelDowns.Inc()
		} else {
			l.player.CurrentXP = 0
			break
		}
	}

	l.saveLocked(ctx)
	return nil
}

// ResetStreak zeroes the streak in memory. The next save persists it;
// decay passes pair this with ApplyDecay so one write covers both.
func (l *Ledger) ResetStreak() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.player.Streak = 0
}

// SetStreak overwrites the streak (reconciled from history) and persists.
func (l *Ledger) SetStreak(ctx context.Context, streak int) error {
	if err := l.AwaitReady(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.player.Streak = streak
	l.saveLocked(ctx)
	return nil
}

// MarkDecayDate records today as the last decay date in memory. It is
// persisted by the decay pass's ApplyDecay or Save.
func (l *Ledger) MarkDecayDate(date string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.player.LastDecayDate = date
}

// SetThemes stores the cosmetic overrides and persists. Locked tiers are
// stored as-is; ActiveTowerTheme ignores them until unlocked.
func (l *Ledger) SetThemes(ctx context.Context, tower, page string) error {
	if err := l.AwaitReady(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.player.TowerTheme = tower
	l.player.PageTheme = page
	l.saveLocked(ctx)
	return nil
}

// Save persists the current state. Used by decay passes that only moved
// the lastDecayDate marker.
func (l *Ledger) Save(ctx context.Context) error {
	if err := l.AwaitReady(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saveLocked(ctx)
	return nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

// updateStreakLocked applies the daily-activity streak rule: same day is
// a no-op, consecutive day increments, anything else resets to 1.
func (l *Ledger) updateStreakLocked() {
	today := domain.DateString(l.now())
	yesterday := domain.DateString(l.now().AddDate(0, 0, -1))

	switch l.player.LastActiveDate {
	case today:
		// Already active today.
	case yesterday:
		l.player.Streak++
	default:
		l.player.Streak = 1
	}
	l.player.LastActiveDate = today
}

// saveLocked merge-updates the player document, best effort. A timeout
// or gateway failure is logged and swallowed: local state stays
// authoritative until the next successful save.
func (l *Ledger) saveLocked(ctx context.Context) {
	if l.userID == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.store.UpdatePlayer(cctx, l.userID, l.player); err != nil {
		log.Printf("[progression] save player %s failed (timeout or offline): %v", l.userID, err)
		observability.SyncFailures.WithLabelValues("update_player").Inc()
	}
}
