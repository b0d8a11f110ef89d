package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) Store {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return NewSQLStore(db)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLite(t),
	}
}

func TestDefault(t *testing.T) {
	p := Default()
	assert.Len(t, p.Games, 5)
	for id, g := range p.Games {
		assert.False(t, g.Completed, id)
	}
	assert.True(t, p.IsUnlocked("altitude"))
	assert.False(t, p.IsUnlocked("median"))
	assert.False(t, p.IsUnlocked("nope"))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 80, Percentage(12, 15))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 13, Percentage(1, 8))
	assert.Equal(t, 0, Percentage(3, 0))
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			gp, err := st.RecordResult(ctx, "p1", "altitude", Result{Score: 12, TotalRounds: 15, Stars: 2, Difficulty: "easy"})
			require.NoError(t, err)
			assert.Equal(t, GameProgress{Completed: true, BestScore: 80, Stars: 2, Attempts: 1}, gp)

			// A worse run never lowers best score or stars.
			gp, err = st.RecordResult(ctx, "p1", "altitude", Result{Score: 5, TotalRounds: 15, Stars: 0})
			require.NoError(t, err)
			assert.Equal(t, GameProgress{Completed: true, BestScore: 80, Stars: 2, Attempts: 2}, gp)

			p, err := st.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, gp, p.Games["altitude"])
			assert.Equal(t, 1, p.TotalCompleted)
			assert.Equal(t, 2, p.TotalStars)
			assert.InDelta(t, 16.0, p.AverageScore, 1e-9)
			assert.True(t, p.IsUnlocked("median"))
			assert.False(t, p.IsUnlocked("angle-bisector"))

			other, err := st.Load(ctx, "p2")
			require.NoError(t, err)
			assert.Equal(t, 0, other.TotalCompleted)
		})
	}
}

func TestRecordResultRejectsEmpty(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.RecordResult(context.Background(), "p1", "altitude", Result{})
			assert.ErrorIs(t, err, ErrInvalidResult)
		})
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.RecordResult(ctx, "p1", "altitude", Result{Score: 15, TotalRounds: 15, Stars: 3})
			require.NoError(t, err)
			require.NoError(t, st.Reset(ctx, "p1"))

			p, err := st.Load(ctx, "p1")
			require.NoError(t, err)
			if diff := cmp.Diff(Default(), p); diff != "" {
				t.Errorf("progress after reset (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			record := func(player, game string, score int, elapsed time.Duration) {
				_, err := st.RecordResult(ctx, player, game, Result{Score: score, TotalRounds: 15, Elapsed: elapsed})
				require.NoError(t, err)
			}
			record("p1", "altitude", 10, 60*time.Second)
			record("p2", "altitude", 15, 90*time.Second)
			record("p3", "altitude", 15, 80*time.Second)
			record("p1", "median", 15, 10*time.Second)

			rows, err := st.Leaderboard(ctx, "altitude", 0)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "p3", rows[0].PlayerID)
			assert.Equal(t, "p2", rows[1].PlayerID)
			assert.Equal(t, "p1", rows[2].PlayerID)
			assert.Equal(t, 100, rows[0].Percentage)
			assert.Equal(t, int64(80000), rows[0].ElapsedMs)
			assert.Equal(t, 67, rows[2].Percentage)

			rows, err = st.Leaderboard(ctx, "altitude", 1)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

type brokenStore struct{ Store }

func (brokenStore) Load(context.Context, string) (Progress, error) {
	return Progress{}, errors.New("disk on fire")
}

func TestLoadOrDefault(t *testing.T) {
	p := LoadOrDefault(context.Background(), brokenStore{}, "p1")
	assert.Equal(t, Default(), p)
}
