// internal/httpserver/server.go
//
// HTTP server wiring for the geoquest backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/games".
//   - Session endpoints (optional auth): mounted under /session.
//   - Progress + leaderboard endpoints (optional auth).
//   - Auth endpoints: /auth/* (only when a player table is available).
//   - Background pruning of finished or abandoned sessions.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with the player when a valid token is present;
//     guests are identified by an anonymous cookie instead.
//   - Session views never reveal the reference segment before the round does.

package httpserver

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/auth"
	"github.com/robalobadob/geoquest/internal/catalog"
	"github.com/robalobadob/geoquest/internal/game"
	"github.com/robalobadob/geoquest/internal/progress"
	"github.com/robalobadob/geoquest/internal/store"
)

// Config tunes how sessions are created. Zero fields take defaults.
type Config struct {
	TotalRounds  int
	HitThreshold float64
	SessionTTL   time.Duration

	// Scheduler delays round advances; nil uses wall-clock timers.
	Scheduler game.Scheduler

	// RunTimer drives a session's countdown until ctx ends; nil ticks once a second.
	RunTimer func(ctx context.Context, s *game.Session)

	// NewRand seeds each session; nil seeds from the clock.
	NewRand func() *rand.Rand
}

func (c *Config) defaults() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 2 * time.Hour
	}
	if c.RunTimer == nil {
		c.RunTimer = game.RunRealtime
	}
}

// Server bundles router, live sessions, progress store and player accounts.
type Server struct {
	r        *chi.Mux
	sessions store.Store
	progress progress.Store
	players  *auth.Players
	tokens   *auth.Tokens
	cfg      Config
}

// New constructs a Server, installs middleware, and registers routes.
// players may be nil, in which case /auth is not mounted and everyone plays as a guest.
func New(sessions store.Store, prog progress.Store, players *auth.Players, tokens *auth.Tokens, cfg Config) *Server {
	cfg.defaults()
	if tokens == nil {
		tokens = auth.TokensFromEnv()
	}
	s := &Server{r: chi.NewRouter(), sessions: sessions, progress: prog, players: players, tokens: tokens, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "geoquest",
			"endpoints": []string{"/health", "/games", "POST /session/new", "POST /session/click", "/progress/me", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Everything a guest can do.
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Get("/games", s.handleGames)
		s.mountSessions(r)
		s.mountProgress(r)
	})

	if players != nil {
		s.mountAuthRoutes()
	}

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// RunJanitor prunes finished and expired sessions every interval until ctx ends.
func (s *Server) RunJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.sessions.Prune(ctx, now, s.cfg.SessionTTL); n > 0 {
				log.Debug().Int("pruned", n).Msg("sessions pruned")
			}
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ctxUserKey is the context key type for storing the signed-in player.
type ctxUserKey struct{}

// withOptionalAuth decorates requests with the player if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me := s.authenticate(r); me != nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects the player into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			me := s.authenticate(r)
			if me == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
		})
	}
}

// authenticate resolves the request's token to a player that still exists.
func (s *Server) authenticate(r *http.Request) *auth.Claims {
	tok := s.tokens.FromRequest(r)
	if tok == "" {
		return nil
	}
	c, err := s.tokens.Parse(tok)
	if err != nil {
		return nil
	}
	if s.players != nil {
		if _, err := s.players.ByID(r.Context(), c.ID); err != nil {
			return nil
		}
	}
	return &c
}

func currentUser(r *http.Request) *auth.Claims {
	me, _ := r.Context().Value(ctxUserKey{}).(*auth.Claims)
	return me
}

// playerID returns the signed-in player's id, or a stable anonymous id for guests.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return me.ID
	}
	return s.tokens.EnsureAnonID(w, r)
}

// ------------------------------- catalog -----------------------------------

type gameEntry struct {
	catalog.Game
	Unlocked bool                  `json:"unlocked"`
	Progress progress.GameProgress `json:"progress"`
}

// handleGames lists the catalog with the caller's unlock state.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	p := progress.LoadOrDefault(r.Context(), s.progress, s.playerID(w, r))
	out := []gameEntry{}
	for _, g := range catalog.Order() {
		out = append(out, gameEntry{Game: g, Unlocked: p.IsUnlocked(g.ID), Progress: p.Games[g.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
