// Package observability exposes Prometheus metrics for the progression
// engine: XP flow, decay charges, quest lifecycle events, and gateway
// sync failures. Metrics are package-level promauto vars so any layer
// can record without plumbing a registry around.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Progression Metrics ────────────────────────────────────────────────────

// XPGained counts XP granted through quest completions and boss rewards.
var XPGained = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "progression",
	Name:      "xp_gained_total",
	Help:      "Total XP granted to players.",
})

// XPLost counts XP drained by entropy decay.
var XPLost = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "progression",
	Name:      "xp_lost_total",
	Help:      "Total XP drained by entropy decay.",
})

// LevelUps counts level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "progression",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// LevelDowns counts de-level events caused by decay.
var LevelDowns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "progression",
	Name:      "level_downs_total",
	Help:      "Total de-level events caused by decay.",
})

// BossGatesArmed counts boss gates engaged at milestone boundaries.
var BossGatesArmed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "progression",
	Name:      "boss_gates_armed_total",
	Help:      "Total boss gates engaged at milestone levels.",
})

// BossGatesCleared counts boss gates cleared by accumulated gate XP.
var BossGatesCleared = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "progression",
	Name:      "boss_gates_cleared_total",
	Help:      "Total boss gates cleared.",
})

// ─── Quest Metrics ──────────────────────────────────────────────────────────

// QuestsCompleted counts quest completions by corruption state.
var QuestsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "quests",
	Name:      "completed_total",
	Help:      "Total quests completed.",
}, []string{"corrupted"})

// QuestsAbandoned counts quests deleted while overdue.
var QuestsAbandoned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "quests",
	Name:      "abandoned_total",
	Help:      "Total overdue quests deleted (abandonment penalty applied).",
})

// DecayPasses counts decay reconciliation passes by outcome.
var DecayPasses = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "quests",
	Name:      "decay_passes_total",
	Help:      "Total decay reconciliation passes by outcome.",
}, []string{"outcome"}) // "charged", "noop", "marker_only"

// ─── Gateway Metrics ────────────────────────────────────────────────────────

// SyncFailures counts gateway calls that timed out or failed, by operation.
var SyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "spire",
	Subsystem: "gateway",
	Name:      "sync_failures_total",
	Help:      "Total gateway calls that failed or timed out.",
}, []string{"op"})
