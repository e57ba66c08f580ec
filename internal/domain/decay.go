package domain

import "math"

// ─── Entropy Decay ──────────────────────────────────────────────────────────
// Overdue quests rot: each day past the deadline costs a fraction of the
// player's xpToNextLevel. Higher-level players pay a higher base rate and
// a steeper escalation per extra day, so decay keeps its teeth late game.

// decayRates returns the (initial rate, per-day escalation) pair for the
// player's level bracket.
func decayRates(level int) (initial, escalation float64) {
	switch {
	case level < 20:
		return 0.10, 0.05
	case level < 40:
		return 0.15, 0.05
	case level < 60:
		return 0.20, 0.10
	case level < 80:
		return 0.25, 0.10
	case level < 100:
		return 0.25, 0.15
	default:
		return 0.30, 0.20
	}
}

// DecayRate is the fraction of xpToNextLevel charged for a quest that is
// daysOverdue calendar days late.
func DecayRate(level, daysOverdue int) float64 {
	initial, escalation := decayRates(level)
	if daysOverdue <= 1 {
		return initial
	}
	return initial + escalation*float64(daysOverdue-1)
}

// DecayPenalty is the XP charged for one overdue quest at the given
// lateness: round(xpToNextLevel · rate).
func DecayPenalty(level, daysOverdue int) int {
	return int(math.Round(float64(XPToNextLevel(level)) * DecayRate(level, daysOverdue)))
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// MomentumMultiplier amplifies quest rewards by streak length.
func MomentumMultiplier(streak int) float64 {
	switch {
	case streak >= 14:
		return 2.5
	case streak >= 7:
		return 2.0
	case streak >= 5:
		return 1.6
	case streak >= 3:
		return 1.3
	default:
		return 1.0
	}
}

// EarlyBirdBonus rewards finishing ahead of the deadline:
// round(xpReward · 0.1 · daysEarly). Zero when not early.
func EarlyBirdBonus(xpReward, daysEarly int) int {
	if daysEarly <= 0 {
		return 0
	}
	return int(math.Round(float64(xpReward) * 0.1 * float64(daysEarly)))
}

// CompletionReward is the total XP for completing a non-corrupted quest.
// The early-bird bonus is computed on the raw xpReward and added after
// the momentum multiplier: reward = xpReward·multiplier + bonus.
func CompletionReward(xpReward, streak, daysEarly int) int {
	base := float64(xpReward) * MomentumMultiplier(streak)
	return int(math.Round(base + float64(EarlyBirdBonus(xpReward, daysEarly))))
}
