// cmd/geoterm
//
// Terminal client for geoquest.
// Responsibilities:
//   - Pick a game and difficulty from flags, refusing games that are still locked.
//   - Render the round with tcell and turn mouse clicks into canvas clicks.
//   - Persist finished sessions to the same progress store the server uses.
//
// Logs go to a file (or nowhere) so they never draw over the screen.

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/catalog"
	"github.com/robalobadob/geoquest/internal/game"
	"github.com/robalobadob/geoquest/internal/progress"
	"github.com/robalobadob/geoquest/internal/puzzle"
)

func main() {
	_ = godotenv.Load()

	gameID := flag.String("game", "altitude", "game to play")
	diff := flag.String("difficulty", "", "easy, medium or hard (default: the game's own)")
	rounds := flag.Int("rounds", 15, "rounds per session")
	dbPath := flag.String("db", getEnv("DB_PATH", "./data/geoquest.db"), "progress database, or \"memory\"")
	player := flag.String("player", getEnv("USER", "local"), "player id for progress")
	logPath := flag.String("log", "", "write logs to this file")
	list := flag.Bool("list", false, "list games and progress, then exit")
	flag.Parse()

	if err := setupLogging(*logPath); err != nil {
		fail("open log: %v", err)
	}
	if err := catalog.Init(); err != nil {
		fail("load catalog: %v", err)
	}

	st, closeStore := openStore(*dbPath)
	defer closeStore()
	p := progress.LoadOrDefault(context.Background(), st, *player)

	if *list {
		printGames(os.Stdout, p)
		return
	}

	g, ok := catalog.Lookup(*gameID)
	switch {
	case !ok:
		fail("unknown game %q", *gameID)
	case !g.Playable:
		fail("%s is not playable yet", g.ID)
	case !p.IsUnlocked(g.ID):
		prev, _ := catalog.Previous(g.ID)
		fail("%s is locked: finish %s first", g.ID, prev)
	}
	d := g.Difficulty
	if *diff != "" {
		var err error
		if d, err = puzzle.ParseDifficulty(*diff); err != nil {
			fail("%v", err)
		}
	}

	sess := game.NewSession(fmt.Sprintf("term-%d", time.Now().UnixNano()), game.Options{
		GameID:      g.ID,
		Concept:     g.Concept(),
		Difficulty:  d,
		TotalRounds: *rounds,
		Reporter:    recorder(st, *player),
	})

	screen, err := tcell.NewScreen()
	if err != nil {
		fail("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		fail("screen init: %v", err)
	}
	screen.EnableMouse()
	screen.SetStyle(styleDefault)
	defer screen.Fini()

	sess.Start()
	NewApp(screen, sess).Run(context.Background())
}

// recorder folds completed sessions into the player's progress.
func recorder(st progress.Store, player string) game.Reporter {
	return game.ReporterFunc(func(r game.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		gp, err := st.RecordResult(ctx, player, r.GameID, progress.Result{
			Score:       r.Score,
			TotalRounds: r.TotalRounds,
			Stars:       r.Stars,
			Difficulty:  r.Difficulty.String(),
			BestStreak:  r.BestStreak,
			Elapsed:     r.Elapsed,
		})
		if err != nil {
			log.Warn().Err(err).Str("player", player).Msg("record result")
			return
		}
		log.Info().Str("player", player).Str("game", r.GameID).Int("best", gp.BestScore).Msg("result recorded")
	})
}

func openStore(dsn string) (progress.Store, func()) {
	if dsn == "memory" {
		return progress.NewMemoryStore(), func() {}
	}
	db, err := progress.Open(dsn)
	if err != nil {
		fail("open %s: %v", dsn, err)
	}
	if err := progress.Migrate(db); err != nil {
		_ = db.Close()
		fail("migrate: %v", err)
	}
	return progress.NewSQLStore(db), func() { closeDB(db) }
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}

func setupLogging(path string) error {
	var out io.Writer = io.Discard
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		out = f
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	return nil
}

func printGames(w io.Writer, p progress.Progress) {
	for _, g := range catalog.Order() {
		gp := p.Games[g.ID]
		state := "locked"
		switch {
		case !g.Playable:
			state = "coming soon"
		case gp.Completed:
			state = fmt.Sprintf("best %d%% [%s] in %d tries", gp.BestScore, Stars(gp.Stars), gp.Attempts)
		case p.IsUnlocked(g.ID):
			state = "open"
		}
		fmt.Fprintf(w, "%-16s %-8s %-7s %s\n", g.ID, g.Category, g.Difficulty, state)
	}
	fmt.Fprintf(w, "completed %d, stars %d, average %.0f%%\n", p.TotalCompleted, p.TotalStars, p.AverageScore)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "geoterm: "+format+"\n", args...)
	os.Exit(1)
}
