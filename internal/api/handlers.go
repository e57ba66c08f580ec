package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spirequest/spire/internal/domain"
)

// ─── Auth Handlers ──────────────────────────────────────────────────────────

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			writeError(w, http.StatusConflict, "username already taken")
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": id, "token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if userID, err := s.auth.Authenticate(r.Context(), token); err == nil {
		s.sessions.Drop(userID)
	}
	if err := s.auth.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// ─── Player Handlers ────────────────────────────────────────────────────────

type playerResponse struct {
	domain.PlayerState
	XPToNextLevel    int      `json:"xp_to_next_level"`
	Tier             string   `json:"tier"`
	UnlockedTiers    []string `json:"unlocked_tiers"`
	ActiveTowerTheme string   `json:"active_tower_theme"`
	ActivePageTheme  string   `json:"active_page_theme"`
	BossNumber       int      `json:"boss_number,omitempty"`
	BossXPRequired   int      `json:"boss_xp_required,omitempty"`
}

func toPlayerResponse(p domain.PlayerState) playerResponse {
	resp := playerResponse{
		PlayerState:      p,
		XPToNextLevel:    p.XPToNext(),
		Tier:             p.Tier(),
		UnlockedTiers:    p.UnlockedTiers(),
		ActiveTowerTheme: p.ActiveTowerTheme(),
		ActivePageTheme:  p.ActivePageTheme(),
	}
	if p.IsLevelCapped {
		resp.BossNumber = domain.BossNumber(p.Level)
		resp.BossXPRequired = domain.BossXPRequired(p.Level)
	}
	return resp
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, toPlayerResponse(sess.Ledger.Snapshot()))
}

type themesRequest struct {
	TowerTheme string `json:"tower_theme"`
	PageTheme  string `json:"page_theme"`
}

func (s *Server) handleSetThemes(w http.ResponseWriter, r *http.Request) {
	var req themesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess := sessionFrom(r)
	if err := sess.Ledger.SetThemes(r.Context(), req.TowerTheme, req.PageTheme); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(sess.Ledger.Snapshot()))
}

// ─── Quest Handlers ─────────────────────────────────────────────────────────

func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{"quests": sess.Quests.Quests()})
}

func (s *Server) handleAddQuest(w http.ResponseWriter, r *http.Request) {
	var draft domain.QuestDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if draft.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	sess := sessionFrom(r)
	quest, err := sess.Quests.Add(r.Context(), draft)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, quest)
}

func (s *Server) handleCompleteQuest(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Quests.Complete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrQuestNotFound) {
			writeError(w, http.StatusNotFound, "quest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(sess.Ledger.Snapshot()))
}

func (s *Server) handleEditQuest(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuestPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess := sessionFrom(r)
	if err := sess.Quests.Edit(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		if errors.Is(err, domain.ErrQuestNotFound) {
			writeError(w, http.StatusNotFound, "quest not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": sess.Quests.Quests()})
}

func (s *Server) handleDeleteQuest(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Quests.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrQuestNotFound) {
			writeError(w, http.StatusNotFound, "quest not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(sess.Ledger.Snapshot()))
}

// ─── History Handler ────────────────────────────────────────────────────────

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	history, err := sess.Quests.HistoryLedger(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// ─── Goal Handler ───────────────────────────────────────────────────────────

type goalRequest struct {
	Goal string `json:"goal"`
}

// handleGoal decomposes a free-text goal into micro-quests and creates
// them with deadlines offset from now. The planner never fails, so the
// only error path is quest persistence.
func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	sess := sessionFrom(r)
	steps := s.planner.BreakDown(r.Context(), req.Goal)

	now := s.now()
	created := make([]domain.Quest, 0, len(steps))
	for _, step := range steps {
		deadline := now.AddDate(0, 0, step.DeadlineOffsetDays)
		quest, err := sess.Quests.Add(r.Context(), domain.QuestDraft{
			Title:    step.Title,
			XPReward: step.XP,
			Deadline: &deadline,
		})
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		created = append(created, quest)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"quests": created})
}
