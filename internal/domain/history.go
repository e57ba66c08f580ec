package domain

import "time"

// ─── History Ledger ─────────────────────────────────────────────────────────
// The heatmap document: a date-keyed counter map with two key families per
// day. "YYYY-MM-DD" counts completions; "missed_YYYY-MM-DD" counts decay
// misses. Both drive the heatmap and streak reconstruction.

// History is a per-user date-indexed activity ledger.
type History map[string]int

const missedPrefix = "missed_"

// MissedKey returns the miss-counter key for a date string.
func MissedKey(date string) string {
	return missedPrefix + date
}

// CompletedOn returns the completion count for a date.
func (h History) CompletedOn(date string) int {
	return h[date]
}

// MissedOn returns the miss count for a date.
func (h History) MissedOn(date string) int {
	return h[missedPrefix+date]
}

// maxStreakLookbackDays bounds the backward walk when reconstructing a
// streak from history.
const maxStreakLookbackDays = 365

// StreakFrom reconstructs the current streak by walking backward from
// today. A day counts only if it has at least one completion and no miss
// mark. The walk stops at the first day failing that test, except that a
// zero-activity today is skipped rather than treated as a break, so the
// streak reflects the most recent day with a completion signal.
func StreakFrom(h History, today time.Time) int {
	streak := 0
	for i := 0; i <= maxStreakLookbackDays; i++ {
		date := DateString(today.AddDate(0, 0, -i))
		completed := h.CompletedOn(date)
		missed := h.MissedOn(date)

		switch {
		case completed > 0 && missed == 0:
			streak++
		case i == 0 && completed == 0:
			// No activity yet today — start counting from yesterday.
			continue
		default:
			return streak
		}
	}
	return streak
}
