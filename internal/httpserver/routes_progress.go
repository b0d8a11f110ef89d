// internal/httpserver/routes_progress.go
//
// Progress and leaderboard routes:
//   - GET  /progress/me          → the caller's progress with unlock flags
//   - POST /progress/reset       → clear the caller's progress
//   - GET  /leaderboard/{game}   → best sessions for a game (?limit=, default 20)

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/catalog"
	"github.com/robalobadob/geoquest/internal/progress"
)

func (s *Server) mountProgress(r chi.Router) {
	r.Get("/progress/me", s.handleProgress)
	r.Post("/progress/reset", s.handleResetProgress)
	r.Get("/leaderboard/{game}", s.handleLeaderboard)
}

type progressRes struct {
	progress.Progress
	Unlocked map[string]bool `json:"unlocked"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p := progress.LoadOrDefault(r.Context(), s.progress, s.playerID(w, r))
	unlocked := make(map[string]bool, len(p.Games))
	for _, g := range catalog.Order() {
		unlocked[g.ID] = p.IsUnlocked(g.ID)
	}
	writeJSON(w, http.StatusOK, progressRes{Progress: p, Unlocked: unlocked})
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	id := s.playerID(w, r)
	if err := s.progress.Reset(r.Context(), id); err != nil {
		log.Warn().Err(err).Str("player", id).Msg("reset progress")
		writeError(w, http.StatusInternalServerError, "reset_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "game")
	if _, ok := catalog.Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "unknown_game")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 100 {
		limit = 100
	}
	rows, err := s.progress.Leaderboard(r.Context(), id, limit)
	if err != nil {
		log.Error().Err(err).Str("game", id).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
