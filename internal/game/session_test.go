package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/geoquest/internal/geom"
	"github.com/robalobadob/geoquest/internal/puzzle"
)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) Report(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func newTestSession(t *testing.T, d puzzle.Difficulty, rounds int) (*Session, *ManualScheduler, *recorder) {
	t.Helper()
	sched := &ManualScheduler{}
	rec := &recorder{}
	s := NewSession("test", Options{
		GameID:      "altitude",
		Difficulty:  d,
		TotalRounds: rounds,
		Rand:        rand.New(rand.NewSource(99)),
		Scheduler:   sched,
		Reporter:    rec,
	})
	return s, sched, rec
}

func referenceFoot(v View) geom.Point {
	return v.Lines.Segments[v.Lines.Reference()].Foot()
}

func decoyFeet(v View) []geom.Point {
	var out []geom.Point
	for _, seg := range v.Lines.Segments {
		if !seg.IsReference {
			out = append(out, seg.Foot())
		}
	}
	return out
}

func TestPerfectEasySession(t *testing.T) {
	s, sched, rec := newTestSession(t, puzzle.Easy, 15)
	s.Start()

	for round := 1; round <= 15; round++ {
		v := s.Snapshot()
		require.Equal(t, PhaseActive, v.Phase)
		require.Equal(t, round, v.Round)
		require.Equal(t, 2, v.Attempts)

		assert.Equal(t, OutcomeCorrect, s.Click(referenceFoot(v)))
		assert.Equal(t, PhaseAnswered, s.Snapshot().Phase)
		require.Equal(t, 1, sched.Advance(DefaultDelays.Correct))
	}

	v := s.Snapshot()
	assert.Equal(t, PhaseComplete, v.Phase)
	assert.Equal(t, 15, v.Score)
	assert.Equal(t, 15, v.Streak)
	assert.Equal(t, 3, v.Stars)

	require.Len(t, rec.results, 1)
	assert.Equal(t, Result{
		SessionID:   "test",
		GameID:      "altitude",
		Difficulty:  puzzle.Easy,
		Score:       15,
		TotalRounds: 15,
		Stars:       3,
		BestStreak:  15,
		Elapsed:     rec.results[0].Elapsed,
	}, rec.results[0])

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed after completion")
	}
}

func TestMissingBothAttemptsRevealsAndAdvances(t *testing.T) {
	s, sched, _ := newTestSession(t, puzzle.Easy, 15)
	s.Start()

	v := s.Snapshot()
	decoys := decoyFeet(v)
	require.Len(t, decoys, 2)

	assert.Equal(t, OutcomeWrong, s.Click(decoys[0]))
	v = s.Snapshot()
	assert.Equal(t, 1, v.Attempts)
	assert.False(t, v.Revealed)
	assert.Equal(t, PhaseActive, v.Phase)

	for _, seg := range v.Lines.Segments {
		assert.Equal(t, seg.Foot() == decoys[0], seg.Selected)
	}

	assert.Equal(t, OutcomeExhausted, s.Click(decoys[1]))
	v = s.Snapshot()
	assert.Equal(t, 0, v.Attempts)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, 0, v.Streak)
	assert.True(t, v.Revealed)
	assert.Equal(t, PhaseExhausted, v.Phase)

	assert.Equal(t, OutcomeIgnored, s.Click(referenceFoot(v)), "input is blocked while the reveal is shown")

	sched.Advance(DefaultDelays.Exhausted - time.Millisecond)
	assert.Equal(t, 1, s.Snapshot().Round)

	sched.Advance(time.Millisecond)
	v = s.Snapshot()
	assert.Equal(t, 2, v.Round)
	assert.Equal(t, 2, v.Attempts)
	assert.Equal(t, 0, v.Score)
	assert.False(t, v.Revealed)
	assert.Equal(t, PhaseActive, v.Phase)
}

func TestTimeoutFailsRound(t *testing.T) {
	s, sched, _ := newTestSession(t, puzzle.Easy, 15)
	s.Start()

	require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(s.Snapshot())))
	sched.Advance(DefaultDelays.Correct)
	require.Equal(t, 1, s.Snapshot().Streak)

	limit := puzzle.Easy.Tier().TimeLimit
	for i := 0; i < limit-1; i++ {
		s.Tick()
	}
	v := s.Snapshot()
	assert.Equal(t, 1, v.TimeRemaining)
	assert.Equal(t, PhaseActive, v.Phase)

	s.Tick()
	v = s.Snapshot()
	assert.Equal(t, PhaseTimedOut, v.Phase)
	assert.Equal(t, 0, v.Streak)
	assert.Equal(t, 1, v.Score)
	assert.True(t, v.Revealed)

	s.Tick() // no effect while waiting
	assert.Equal(t, 0, s.Snapshot().TimeRemaining)

	sched.Advance(DefaultDelays.Timeout)
	v = s.Snapshot()
	assert.Equal(t, 3, v.Round)
	assert.Equal(t, 1, v.Score)
	assert.Equal(t, limit, v.TimeRemaining)
}

func TestExhaustionBeatsTimerInSameTick(t *testing.T) {
	s, _, _ := newTestSession(t, puzzle.Hard, 5)
	s.Start()
	for i := 0; i < puzzle.Hard.Tier().TimeLimit-1; i++ {
		s.Tick()
	}
	require.Equal(t, OutcomeExhausted, s.Click(decoyFeet(s.Snapshot())[0]))

	s.Tick()
	v := s.Snapshot()
	assert.Equal(t, PhaseExhausted, v.Phase)
	assert.Equal(t, 1, v.TimeRemaining)
}

func TestRestartCancelsPendingAdvance(t *testing.T) {
	s, sched, _ := newTestSession(t, puzzle.Medium, 3)
	s.Start()
	require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(s.Snapshot())))
	require.Equal(t, 1, sched.Pending())

	s.Start()
	assert.Equal(t, 0, sched.Pending())
	sched.Advance(time.Minute)

	v := s.Snapshot()
	assert.Equal(t, 1, v.Round, "stale timer must not advance the new play-through")
	assert.Equal(t, 0, v.Score)
}

func TestStaleTokenIsDropped(t *testing.T) {
	s, _, _ := newTestSession(t, puzzle.Medium, 3)
	s.Start()
	s.advance(s.token - 1)
	assert.Equal(t, 1, s.Snapshot().Round)
}

func TestAbort(t *testing.T) {
	s, sched, rec := newTestSession(t, puzzle.Medium, 3)
	s.Start()
	require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(s.Snapshot())))

	s.Abort()
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, PhaseAborted, s.Snapshot().Phase)
	assert.Equal(t, OutcomeIgnored, s.Click(geom.Pt(0, 0)))
	assert.Empty(t, rec.results)

	s.Abort() // idempotent
}

func TestScoreNeverExceedsRound(t *testing.T) {
	s, sched, rec := newTestSession(t, puzzle.Medium, 12)
	s.Start()

	plan := []string{"correct", "wrong-then-correct", "exhaust", "timeout", "correct", "correct",
		"exhaust", "correct", "timeout", "wrong-then-correct", "correct", "exhaust"}
	correct := 0
	for i, step := range plan {
		v := s.Snapshot()
		require.Equal(t, i+1, v.Round)
		switch step {
		case "correct":
			require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(v)))
			correct++
			sched.Advance(DefaultDelays.Correct)
		case "wrong-then-correct":
			require.Equal(t, OutcomeWrong, s.Click(decoyFeet(v)[0]))
			require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(v)))
			correct++
			sched.Advance(DefaultDelays.Correct)
		case "exhaust":
			d := decoyFeet(v)
			require.Equal(t, OutcomeWrong, s.Click(d[0]))
			require.Equal(t, OutcomeExhausted, s.Click(d[1]))
			sched.Advance(DefaultDelays.Exhausted)
		case "timeout":
			for k := 0; k < v.TimeLimit; k++ {
				s.Tick()
			}
			sched.Advance(DefaultDelays.Timeout)
		}
		v = s.Snapshot()
		assert.Equal(t, correct, v.Score, "after round %d", i+1)
		assert.LessOrEqual(t, v.Score, v.Round)
		assert.LessOrEqual(t, v.Round, v.TotalRounds)
	}

	v := s.Snapshot()
	assert.Equal(t, PhaseComplete, v.Phase)
	assert.Equal(t, 12, v.Round)
	assert.Equal(t, 7, v.Score)
	assert.Equal(t, StarRating(7, 12), v.Stars)
	require.Len(t, rec.results, 1)
	assert.Equal(t, 2, rec.results[0].BestStreak)
}

func TestClickOutsideEverySegment(t *testing.T) {
	s, _, _ := newTestSession(t, puzzle.Medium, 3)
	assert.Equal(t, OutcomeIgnored, s.Click(geom.Pt(1, 1)), "idle sessions ignore input")
	s.Start()
	assert.Equal(t, OutcomeNone, s.Click(geom.Pt(-500, -500)))
	assert.Equal(t, 2, s.Snapshot().Attempts)
}

func TestRedactedHidesReferenceUntilReveal(t *testing.T) {
	s, _, _ := newTestSession(t, puzzle.Medium, 3)
	s.Start()

	v := s.Snapshot()
	red := v.Redacted()
	assert.Equal(t, -1, red.Lines.Reference())
	assert.NotEqual(t, -1, v.Lines.Reference(), "redaction must not touch the original")

	s.Click(referenceFoot(v))
	assert.NotEqual(t, -1, s.Snapshot().Redacted().Lines.Reference())
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _, _ := newTestSession(t, puzzle.Easy, 3)
	s.Start()
	v := s.Snapshot()
	v.Lines.Segments[0].Selected = true
	assert.False(t, s.Snapshot().Lines.Segments[0].Selected)
}

func TestRunFeedsTicks(t *testing.T) {
	s, _, _ := newTestSession(t, puzzle.Hard, 3)
	s.Start()

	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		Run(ctx, s, ticks)
		close(exited)
	}()

	ticks <- time.Now()
	ticks <- time.Now()
	cancel()
	<-exited

	assert.Equal(t, puzzle.Hard.Tier().TimeLimit-2, s.Snapshot().TimeRemaining)
}

func TestStarRatingBreakpoints(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{90, 100, 3},
		{70, 100, 2},
		{50, 100, 1},
		{49, 100, 0},
		{9, 10, 3},
		{89, 100, 2},
		{15, 15, 3},
		{0, 15, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StarRating(tt.score, tt.total), "%d/%d", tt.score, tt.total)
	}
}

func TestManualSchedulerOrder(t *testing.T) {
	var sched ManualScheduler
	var got []int
	sched.AfterFunc(2*time.Second, func() { got = append(got, 2) })
	sched.AfterFunc(time.Second, func() { got = append(got, 1) })
	stopped := sched.AfterFunc(time.Second, func() { got = append(got, 99) })
	assert.True(t, stopped.Stop())

	assert.Equal(t, 2, sched.Advance(3*time.Second))
	assert.Equal(t, []int{1, 2}, got)
	assert.False(t, stopped.Stop())
}

func TestRestartDuringReportKeepsBothResults(t *testing.T) {
	s, sched, rec := newTestSession(t, puzzle.Easy, 1)
	s.Start()
	require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(s.Snapshot())))

	// Complete the first run the way advance does, but restart before its
	// report is delivered.
	s.mu.Lock()
	require.True(t, s.nextRoundLocked())
	first, run := s.resultLocked(), s.run
	s.mu.Unlock()
	s.Start()
	s.report(first, run)
	require.Len(t, rec.results, 1)

	require.Equal(t, OutcomeCorrect, s.Click(referenceFoot(s.Snapshot())))
	require.Equal(t, 1, sched.Advance(DefaultDelays.Correct))
	assert.Equal(t, PhaseComplete, s.Snapshot().Phase)
	require.Len(t, rec.results, 2)

	// A duplicate delivery for either run is dropped.
	s.report(first, run)
	assert.Len(t, rec.results, 2)
}
