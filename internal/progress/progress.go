// internal/progress/progress.go
//
// Per-player progress across games.
// Responsibilities:
//   - Fold finished sessions into monotonic per-game records (best score, stars, attempts).
//   - Keep the derived totals (games completed, stars, average best score) in sync.
//   - Decide which games are unlocked from the catalog ordering.
//   - Define the Store contract the session layer reports into.
//
// Read failures never block play: LoadOrDefault falls back to a fresh record.

package progress

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/catalog"
)

// ErrInvalidResult rejects results that cannot be turned into a percentage.
var ErrInvalidResult = errors.New("progress: result needs a positive round count")

// GameProgress is the stored record for one game.
type GameProgress struct {
	Completed bool `json:"completed"`
	BestScore int  `json:"bestScore"` // percentage, 0..100
	Stars     int  `json:"stars"`
	Attempts  int  `json:"attempts"`
}

// Progress is everything stored for one player.
type Progress struct {
	Games          map[string]GameProgress `json:"gameProgress"`
	TotalCompleted int                     `json:"totalGamesCompleted"`
	TotalStars     int                     `json:"totalStars"`
	AverageScore   float64                 `json:"averageScore"`
}

// Result is a finished session as seen by the store.
type Result struct {
	Score       int           `json:"score"`
	TotalRounds int           `json:"totalRounds"`
	Stars       int           `json:"stars"`
	Difficulty  string        `json:"difficulty"`
	BestStreak  int           `json:"bestStreak"`
	Elapsed     time.Duration `json:"elapsed"`
}

// LeaderboardRow is one entry of a per-game leaderboard.
type LeaderboardRow struct {
	PlayerID   string `json:"playerId"`
	Username   string `json:"username,omitempty"`
	Score      int    `json:"score"`
	Total      int    `json:"totalRounds"`
	Percentage int    `json:"percentage"`
	Stars      int    `json:"stars"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// Store persists progress. Implementations may be backed by memory or SQL.
type Store interface {
	// Load returns the player's progress; unknown players get Default().
	Load(ctx context.Context, playerID string) (Progress, error)

	// RecordResult folds r into the player's record for gameID and returns the new record.
	RecordResult(ctx context.Context, playerID, gameID string, r Result) (GameProgress, error)

	// Reset clears the player's progress.
	Reset(ctx context.Context, playerID string) error

	// Leaderboard lists the best results for gameID.
	Leaderboard(ctx context.Context, gameID string, limit int) ([]LeaderboardRow, error)
}

// Default is the record of a player who never finished a game.
func Default() Progress {
	p := Progress{Games: make(map[string]GameProgress)}
	for _, g := range catalog.Order() {
		p.Games[g.ID] = GameProgress{}
	}
	return p
}

// Percentage is score/total rounded to a whole percent.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Fold applies one finished session to a game record.
func Fold(cur GameProgress, r Result) GameProgress {
	pct := Percentage(r.Score, r.TotalRounds)
	return GameProgress{
		Completed: true,
		BestScore: max(cur.BestScore, pct),
		Stars:     max(cur.Stars, r.Stars),
		Attempts:  cur.Attempts + 1,
	}
}

// Apply folds r into the game's record and refreshes the totals.
func (p *Progress) Apply(gameID string, r Result) GameProgress {
	if p.Games == nil {
		p.Games = make(map[string]GameProgress)
	}
	gp := Fold(p.Games[gameID], r)
	p.Games[gameID] = gp
	p.Recalculate()
	return gp
}

// Recalculate derives the totals from the per-game records.
func (p *Progress) Recalculate() {
	p.TotalCompleted, p.TotalStars, p.AverageScore = 0, 0, 0
	sum := 0
	for _, g := range p.Games {
		if g.Completed {
			p.TotalCompleted++
		}
		p.TotalStars += g.Stars
		sum += g.BestScore
	}
	if len(p.Games) > 0 {
		p.AverageScore = float64(sum) / float64(len(p.Games))
	}
}

// IsUnlocked is true for the first game and for any game whose predecessor
// is completed.
func (p Progress) IsUnlocked(gameID string) bool {
	prev, ok := catalog.Previous(gameID)
	if !ok {
		_, known := catalog.Lookup(gameID)
		return known
	}
	return p.Games[prev].Completed
}

// LoadOrDefault reads a player's progress, starting fresh if the read fails.
func LoadOrDefault(ctx context.Context, st Store, playerID string) Progress {
	p, err := st.Load(ctx, playerID)
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("progress unreadable, starting fresh")
		return Default()
	}
	return p
}

func validate(r Result) error {
	if r.TotalRounds <= 0 {
		return ErrInvalidResult
	}
	return nil
}
