// internal/progress/memory.go
//
// In-memory implementation of the progress Store.
// Used by tests and by servers started without a database file.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package progress

import (
	"context"
	"sort"
	"sync"
)

type memoryResult struct {
	playerID string
	gameID   string
	seq      int
	r        Result
}

type memory struct {
	mu      sync.RWMutex
	players map[string]Progress
	history []memoryResult
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{players: make(map[string]Progress)}
}

func (m *memory) Load(ctx context.Context, playerID string) (Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return Default(), nil
	}
	return clone(p), nil
}

func (m *memory) RecordResult(ctx context.Context, playerID, gameID string, r Result) (GameProgress, error) {
	if err := validate(r); err != nil {
		return GameProgress{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		p = Default()
	}
	gp := p.Apply(gameID, r)
	m.players[playerID] = p
	m.history = append(m.history, memoryResult{playerID: playerID, gameID: gameID, seq: len(m.history), r: r})
	return gp, nil
}

func (m *memory) Reset(ctx context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, playerID)
	return nil
}

func (m *memory) Leaderboard(ctx context.Context, gameID string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	var rows []memoryResult
	for _, h := range m.history {
		if h.gameID == gameID {
			rows = append(rows, h)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := Percentage(rows[i].r.Score, rows[i].r.TotalRounds), Percentage(rows[j].r.Score, rows[j].r.TotalRounds)
		if pi != pj {
			return pi > pj
		}
		if rows[i].r.Elapsed != rows[j].r.Elapsed {
			return rows[i].r.Elapsed < rows[j].r.Elapsed
		}
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]LeaderboardRow, 0, len(rows))
	for _, h := range rows {
		out = append(out, LeaderboardRow{
			PlayerID:   h.playerID,
			Score:      h.r.Score,
			Total:      h.r.TotalRounds,
			Percentage: Percentage(h.r.Score, h.r.TotalRounds),
			Stars:      h.r.Stars,
			ElapsedMs:  h.r.Elapsed.Milliseconds(),
		})
	}
	return out, nil
}

func clone(p Progress) Progress {
	out := p
	out.Games = make(map[string]GameProgress, len(p.Games))
	for k, v := range p.Games {
		out.Games[k] = v
	}
	return out
}
