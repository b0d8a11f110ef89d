// internal/httpserver/routes_session.go
//
// HTTP routes for playing a game.
// Exposes four endpoints under /session:
//   - POST /session/new        → start a session for an unlocked, playable game
//   - POST /session/click      → submit a pointer press in canvas coordinates
//   - GET  /session/{id}       → fetch the current view
//   - POST /session/{id}/abort → leave early (nothing is recorded)
//
// Sessions live in the in-memory registry; each has a goroutine feeding its
// countdown. Completed sessions are folded into the progress store.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/catalog"
	"github.com/robalobadob/geoquest/internal/game"
	"github.com/robalobadob/geoquest/internal/geom"
	"github.com/robalobadob/geoquest/internal/progress"
	"github.com/robalobadob/geoquest/internal/puzzle"
	"github.com/robalobadob/geoquest/internal/store"
)

// mountSessions registers all /session routes.
func (s *Server) mountSessions(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Post("/new", s.handleNewSession)
		r.Post("/click", s.handleClick)
		r.Get("/{id}", s.handleGetSession)
		r.Post("/{id}/abort", s.handleAbort)
	})
}

// newSessionReq/Res payloads for POST /session/new.
type newSessionReq struct {
	Game       string `json:"game"`
	Difficulty string `json:"difficulty"` // empty → the game's default
}
type sessionRes struct {
	SessionID string    `json:"sessionId"`
	View      game.View `json:"view"`
}

// handleNewSession starts a session and its countdown.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	g, ok := catalog.Lookup(req.Game)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_game")
		return
	}
	if !g.Playable {
		writeError(w, http.StatusBadRequest, "not_playable")
		return
	}
	d := g.Difficulty
	if req.Difficulty != "" {
		var err error
		if d, err = puzzle.ParseDifficulty(req.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, "bad_difficulty")
			return
		}
	}

	owner := s.playerID(w, r)
	if p := progress.LoadOrDefault(r.Context(), s.progress, owner); !p.IsUnlocked(g.ID) {
		writeError(w, http.StatusForbidden, "locked")
		return
	}

	opts := game.Options{
		GameID:       g.ID,
		Concept:      g.Concept(),
		Difficulty:   d,
		TotalRounds:  s.cfg.TotalRounds,
		HitThreshold: s.cfg.HitThreshold,
		Scheduler:    s.cfg.Scheduler,
		Reporter:     s.reporterFor(owner),
	}
	if s.cfg.NewRand != nil {
		opts.Rand = s.cfg.NewRand()
	}
	sess := game.NewSession(uuid.NewString(), opts)
	sess.Start()

	// The countdown must outlive the request.
	ctx, cancel := context.WithCancel(context.Background())
	go s.cfg.RunTimer(ctx, sess)

	if err := s.sessions.Save(r.Context(), store.NewEntry(sess, owner, cancel)); err != nil {
		cancel()
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("session", sess.ID()).Str("game", g.ID).Stringer("difficulty", d).Msg("session created")
	writeJSON(w, http.StatusOK, sessionRes{SessionID: sess.ID(), View: sess.Snapshot().Redacted()})
}

// reporterFor folds a completed session into owner's progress (best effort).
func (s *Server) reporterFor(owner string) game.Reporter {
	return game.ReporterFunc(func(res game.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := s.progress.RecordResult(ctx, owner, res.GameID, progress.Result{
			Score:       res.Score,
			TotalRounds: res.TotalRounds,
			Stars:       res.Stars,
			Difficulty:  res.Difficulty.String(),
			BestStreak:  res.BestStreak,
			Elapsed:     res.Elapsed,
		})
		if err != nil {
			log.Warn().Err(err).Str("session", res.SessionID).Str("player", owner).Msg("record result")
		}
	})
}

// clickReq/Res payloads for POST /session/click.
type clickReq struct {
	SessionID string  `json:"sessionId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}
type clickRes struct {
	Outcome game.Outcome `json:"outcome"`
	View    game.View    `json:"view"`
}

// handleClick applies a pointer press to the caller's session.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	e, ok := s.ownedEntry(w, r, req.SessionID)
	if !ok {
		return
	}
	if !e.Allow() {
		writeError(w, http.StatusTooManyRequests, "slow_down")
		return
	}
	out := e.Session.Click(geom.Pt(req.X, req.Y))
	writeJSON(w, http.StatusOK, clickRes{Outcome: out, View: e.Session.Snapshot().Redacted()})
}

// handleGetSession returns the caller's session view.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.ownedEntry(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{SessionID: e.Session.ID(), View: e.Session.Snapshot().Redacted()})
}

// handleAbort ends the caller's session without recording it.
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	e, ok := s.ownedEntry(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), e.Session.ID()); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "abort_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ownedEntry loads a session and checks it belongs to the caller. It writes
// the error response itself.
func (s *Server) ownedEntry(w http.ResponseWriter, r *http.Request, id string) (*store.Entry, bool) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_session")
		return nil, false
	}
	e, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if e.Owner != s.playerID(w, r) {
		writeError(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return e, true
}
