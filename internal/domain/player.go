// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

// ─── Tier Types ─────────────────────────────────────────────────────────────

// TierList holds every tower material tier in unlock order.
// A new tier is entered every 10 levels; Omega covers level 100+.
var TierList = []string{
	"Stone", "Iron", "Gold", "Diamond", "Astral", "Void",
	"Celestial", "Ethereal", "Mythic", "Transcendent", "Omega",
}

// TierForLevel returns the tower material tier a level falls into.
func TierForLevel(level int) string {
	idx := level / 10
	if idx >= len(TierList) {
		idx = len(TierList) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return TierList[idx]
}

// ─── Player State ───────────────────────────────────────────────────────────

// PlayerState is the per-user progression document.
// LastActiveDate and LastDecayDate are local YYYY-MM-DD strings used as
// idempotency keys for streak updates and daily decay charges.
type PlayerState struct {
	Level          int    `json:"level"`
	CurrentXP      int    `json:"current_xp"`
	Streak         int    `json:"streak"`
	TotalXPLost    int    `json:"total_xp_lost"`
	IsLevelCapped  bool   `json:"is_level_capped"`
	BossXPEarned   int    `json:"boss_xp_earned"`
	HighestLevel   int    `json:"highest_level"`
	TowerTheme     string `json:"tower_theme,omitempty"` // cosmetic override, "" = current tier
	PageTheme      string `json:"page_theme,omitempty"`  // cosmetic override, "" = current tier
	LastActiveDate string `json:"last_active_date,omitempty"`
	LastDecayDate  string `json:"last_decay_date,omitempty"`
}

// DefaultPlayerState returns the state a brand-new player starts with.
func DefaultPlayerState() PlayerState {
	return PlayerState{
		Level:        5,
		CurrentXP:    50,
		HighestLevel: 5,
	}
}

// XPToNextLevel is the XP required to clear the given level: 100 + 20·level.
func XPToNextLevel(level int) int {
	return 100 + 20*level
}

// XPToNext returns the XP required to clear the player's current level.
func (p PlayerState) XPToNext() int {
	return XPToNextLevel(p.Level)
}

// BossNumber identifies which boss guards the player's next milestone
// (boss 1 at levels 1–9, boss 2 at 10–19, and so on).
func BossNumber(level int) int {
	return level/10 + 1
}

// BossXPRequired is the gate-XP needed to clear the boss: 150·bossNumber.
func BossXPRequired(level int) int {
	return 150 * BossNumber(level)
}

// Tier returns the player's current tower material tier.
func (p PlayerState) Tier() string {
	return TierForLevel(p.Level)
}

// UnlockedTiers returns every tier unlocked by the highest level ever
// reached. De-leveling never re-locks a tier.
func (p PlayerState) UnlockedTiers() []string {
	idx := p.HighestLevel / 10
	if idx >= len(TierList) {
		idx = len(TierList) - 1
	}
	tiers := make([]string, idx+1)
	copy(tiers, TierList[:idx+1])
	return tiers
}

// hasUnlocked reports whether the named tier is in the unlocked set.
func (p PlayerState) hasUnlocked(tier string) bool {
	for _, t := range p.UnlockedTiers() {
		if t == tier {
			return true
		}
	}
	return false
}

// ActiveTowerTheme resolves the tower cosmetic: the selected override if
// it is unlocked, otherwise the current tier.
func (p PlayerState) ActiveTowerTheme() string {
	if p.TowerTheme != "" && p.hasUnlocked(p.TowerTheme) {
		return p.TowerTheme
	}
	return p.Tier()
}

// ActivePageTheme resolves the page cosmetic: the selected override if
// it is unlocked, otherwise the current tier.
func (p PlayerState) ActivePageTheme() string {
	if p.PageTheme != "" && p.hasUnlocked(p.PageTheme) {
		return p.PageTheme
	}
	return p.Tier()
}
