package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spirequest/spire/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Player Store ───────────────────────────────────────────────────────────

func TestGetPlayer_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetPlayer(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("GetPlayer() error = %v, want ErrPlayerNotFound", err)
	}
}

func TestPlayerRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	want := domain.DefaultPlayerState()
	want.Streak = 4
	want.TowerTheme = "Gold"
	want.LastDecayDate = "2024-03-10"
	if err := db.CreatePlayer(ctx, "u1", want); err != nil {
		t.Fatalf("CreatePlayer() error: %v", err)
	}

	got, err := db.GetPlayer(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPlayer() error: %v", err)
	}
	if got != want {
		t.Errorf("GetPlayer() = %+v, want %+v", got, want)
	}
}

func TestCreatePlayer_SetIfAbsent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := domain.DefaultPlayerState()
	first.Level = 12
	if err := db.CreatePlayer(ctx, "u1", first); err != nil {
		t.Fatal(err)
	}
	// A racing second create must not reset the document.
	if err := db.CreatePlayer(ctx, "u1", domain.DefaultPlayerState()); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetPlayer(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != 12 {
		t.Errorf("Level = %d, want 12 (second create ignored)", got.Level)
	}
}

func TestUpdatePlayer_LastWriteWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	state := domain.DefaultPlayerState()
	if err := db.UpdatePlayer(ctx, "u1", state); err != nil {
		t.Fatal(err)
	}
	state.Level = 7
	state.CurrentXP = 30
	state.IsLevelCapped = true
	if err := db.UpdatePlayer(ctx, "u1", state); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetPlayer(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != 7 || got.CurrentXP != 30 || !got.IsLevelCapped {
		t.Errorf("GetPlayer() = %+v, want level 7 / xp 30 / capped", got)
	}
}

// ─── Quest Store ────────────────────────────────────────────────────────────

func TestQuestLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	deadline := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	id, err := db.CreateQuest(ctx, "u1", domain.Quest{
		Title:     "Write the chapter",
		XPReward:  25,
		Status:    domain.QuestActive,
		Deadline:  &deadline,
		CreatedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateQuest() error: %v", err)
	}
	if id == "" || domain.IsTempID(id) {
		t.Fatalf("CreateQuest() id = %q, want durable id", id)
	}

	quests, err := db.ActiveQuests(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveQuests() error: %v", err)
	}
	if len(quests) != 1 {
		t.Fatalf("len(quests) = %d, want 1", len(quests))
	}
	q := quests[0]
	if q.Title != "Write the chapter" || q.XPReward != 25 {
		t.Errorf("quest = %+v", q)
	}
	if q.Deadline == nil || !q.Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", q.Deadline, deadline)
	}

	days := 3
	status := domain.QuestCorrupted
	err = db.UpdateQuest(ctx, "u1", id, domain.QuestPatch{DaysOverdue: &days, Status: &status})
	if err != nil {
		t.Fatalf("UpdateQuest() error: %v", err)
	}
	quests, _ = db.ActiveQuests(ctx, "u1")
	if quests[0].DaysOverdue != 3 || quests[0].Status != domain.QuestCorrupted {
		t.Errorf("after patch: %+v", quests[0])
	}

	if err := db.DeleteQuest(ctx, "u1", id); err != nil {
		t.Fatalf("DeleteQuest() error: %v", err)
	}
	quests, _ = db.ActiveQuests(ctx, "u1")
	if len(quests) != 0 {
		t.Errorf("len(quests) = %d after delete, want 0", len(quests))
	}
}

func TestActiveQuests_ExcludesCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.CreateQuest(ctx, "u1", domain.Quest{
		Title: "Done deal", Status: domain.QuestActive, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	status := domain.QuestCompleted
	now := time.Now()
	if err := db.UpdateQuest(ctx, "u1", id, domain.QuestPatch{Status: &status, CompletedAt: &now}); err != nil {
		t.Fatal(err)
	}

	quests, err := db.ActiveQuests(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(quests) != 0 {
		t.Errorf("completed quest still listed: %+v", quests)
	}
}

func TestUpdateQuest_ClearDeadline(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	deadline := time.Now().Add(24 * time.Hour)

	id, err := db.CreateQuest(ctx, "u1", domain.Quest{
		Title: "Flexible", Status: domain.QuestActive, Deadline: &deadline, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateQuest(ctx, "u1", id, domain.QuestPatch{ClearDeadline: true}); err != nil {
		t.Fatal(err)
	}

	quests, _ := db.ActiveQuests(ctx, "u1")
	if quests[0].Deadline != nil {
		t.Errorf("Deadline = %v, want nil", quests[0].Deadline)
	}
}

func TestUpdateQuest_WrongUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.CreateQuest(ctx, "u1", domain.Quest{
		Title: "Mine", Status: domain.QuestActive, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	title := "Stolen"
	err = db.UpdateQuest(ctx, "u2", id, domain.QuestPatch{Title: &title})
	if !errors.Is(err, domain.ErrQuestNotFound) {
		t.Errorf("UpdateQuest() as wrong user = %v, want ErrQuestNotFound", err)
	}
}

// ─── History Store ──────────────────────────────────────────────────────────

func TestHistoryIncrements(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.IncrementCompleted(ctx, "u1", "2024-03-10"); err != nil {
			t.Fatalf("IncrementCompleted() error: %v", err)
		}
	}
	if err := db.IncrementMissed(ctx, "u1", "2024-03-09"); err != nil {
		t.Fatalf("IncrementMissed() error: %v", err)
	}
	// Another user's ledger stays separate.
	if err := db.IncrementCompleted(ctx, "u2", "2024-03-10"); err != nil {
		t.Fatal(err)
	}

	history, err := db.History(ctx, "u1")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if got := history["2024-03-10"]; got != 3 {
		t.Errorf("completed count = %d, want 3", got)
	}
	if got := history[domain.MissedKey("2024-03-09")]; got != 1 {
		t.Errorf("missed count = %d, want 1", got)
	}
	if len(history) != 2 {
		t.Errorf("len(history) = %d, want 2", len(history))
	}
}

// ─── Accounts and Sessions ──────────────────────────────────────────────────

func TestCreateUser_Duplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "u1", "climber", "hash1"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	err := db.CreateUser(ctx, "u2", "climber", "hash2")
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("duplicate CreateUser() = %v, want ErrUserExists", err)
	}
}

func TestUserByName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "u1", "climber", "hash1"); err != nil {
		t.Fatal(err)
	}

	id, hash, err := db.UserByName(ctx, "climber")
	if err != nil {
		t.Fatalf("UserByName() error: %v", err)
	}
	if id != "u1" || hash != "hash1" {
		t.Errorf("UserByName() = (%q, %q)", id, hash)
	}

	_, _, err = db.UserByName(ctx, "ghost")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown UserByName() = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := db.CreateSession(ctx, "tok-1", "u1", now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	userID, err := db.SessionUser(ctx, "tok-1", now)
	if err != nil {
		t.Fatalf("SessionUser() error: %v", err)
	}
	if userID != "u1" {
		t.Errorf("SessionUser() = %q, want u1", userID)
	}

	if _, err := db.SessionUser(ctx, "tok-unknown", now); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("unknown token = %v, want ErrNotAuthenticated", err)
	}

	if err := db.DeleteSession(ctx, "tok-1"); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
	if _, err := db.SessionUser(ctx, "tok-1", now); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("revoked token = %v, want ErrNotAuthenticated", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := db.CreateSession(ctx, "tok-old", "u1", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	_, err := db.SessionUser(ctx, "tok-old", now)
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Errorf("expired token = %v, want ErrSessionExpired", err)
	}
	// Expired tokens are purged on sight.
	if _, err := db.SessionUser(ctx, "tok-old", now); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("second lookup = %v, want ErrNotAuthenticated", err)
	}
}
