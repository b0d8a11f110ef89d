// internal/catalog/catalog.go
//
// The fixed ordering of games shown on the menu.
//
// Responsibilities:
//   - Load the ordered game list from CATALOG_FILE or fall back to the embedded default.
//   - Answer lookups by id and the "previous game" used by unlock rules.
//   - Mark which games the triangle engine can actually build rounds for.
//
// File format (one game per line, '#' comments):
//   <id> <category> <difficulty>
//
// Initialization is run once (sync.Once).

package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/geoquest/assets"
	"github.com/robalobadob/geoquest/internal/puzzle"
)

// Game is one entry of the menu.
type Game struct {
	ID         string            `json:"id"`
	Category   string            `json:"category"`
	Difficulty puzzle.Difficulty `json:"difficulty"`
	Playable   bool              `json:"playable"`
}

// Concept returns the puzzle concept behind a playable game.
func (g Game) Concept() puzzle.Concept { return puzzle.Concept(g.ID) }

var (
	initOnce   sync.Once
	games      []Game
	index      map[string]int
	initialErr error
)

// Init loads the catalog exactly once.
func Init() error {
	initOnce.Do(func() {
		var lines []string
		if path := os.Getenv("CATALOG_FILE"); path != "" {
			lines, initialErr = readFile(path)
		} else {
			lines, initialErr = assets.CatalogLines()
		}
		if initialErr != nil {
			return
		}
		games, initialErr = parse(lines)
		if initialErr == nil && len(games) == 0 {
			initialErr = errors.New("catalog: no games listed")
		}
		index = make(map[string]int, len(games))
		for i, g := range games {
			index[g.ID] = i
		}
	})
	return initialErr
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s != "" && !strings.HasPrefix(s, "#") {
			out = append(out, s)
		}
	}
	return out, sc.Err()
}

func parse(lines []string) ([]Game, error) {
	out := make([]Game, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		f := strings.Fields(l)
		if len(f) != 3 {
			return nil, fmt.Errorf("catalog: malformed line %q", l)
		}
		if seen[f[0]] {
			return nil, fmt.Errorf("catalog: duplicate game %q", f[0])
		}
		seen[f[0]] = true
		d, err := puzzle.ParseDifficulty(f[2])
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", f[0], err)
		}
		_, cerr := puzzle.ParseConcept(f[0])
		out = append(out, Game{ID: f[0], Category: f[1], Difficulty: d, Playable: cerr == nil})
	}
	return out, nil
}

// Order returns the games in unlock order.
func Order() []Game {
	_ = Init()
	return append([]Game(nil), games...)
}

// Lookup finds a game by id.
func Lookup(id string) (Game, bool) {
	_ = Init()
	i, ok := index[id]
	if !ok {
		return Game{}, false
	}
	return games[i], true
}

// Previous returns the game that must be completed before id unlocks.
// The first game, and unknown ids, have no predecessor.
func Previous(id string) (string, bool) {
	_ = Init()
	i, ok := index[id]
	if !ok || i == 0 {
		return "", false
	}
	return games[i-1].ID, true
}
