// internal/game/types.go
//
// Core type definitions for the session state machine.
// Defines:
//   - Phase: where a session is in its round lifecycle.
//   - Outcome: what a single click did.
//   - Result: the final report handed to the progress store.
//   - View: an immutable snapshot consumed by renderers and the HTTP layer.

package game

import (
	"time"

	"github.com/robalobadob/geoquest/internal/puzzle"
)

// Phase is the coarse state of a session.
//   - "idle":      created, not started.
//   - "active":    a round is accepting clicks and ticks.
//   - "answered":  the reference was found; waiting to advance.
//   - "exhausted": the last attempt missed; reference revealed, waiting to advance.
//   - "timed_out": the countdown hit zero; reference revealed, waiting to advance.
//   - "complete":  all rounds played; stars computed and reported.
//   - "aborted":   the player left early; nothing reported.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseActive    Phase = "active"
	PhaseAnswered  Phase = "answered"
	PhaseExhausted Phase = "exhausted"
	PhaseTimedOut  Phase = "timed_out"
	PhaseComplete  Phase = "complete"
	PhaseAborted   Phase = "aborted"
)

// Terminal reports whether no further transitions can happen.
func (p Phase) Terminal() bool { return p == PhaseComplete || p == PhaseAborted }

// Outcome describes the effect of one click.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"   // not accepting input right now
	OutcomeNone      Outcome = "none"      // click landed on no segment
	OutcomeCorrect   Outcome = "correct"   // reference found
	OutcomeWrong     Outcome = "wrong"     // decoy, attempts remain
	OutcomeExhausted Outcome = "exhausted" // decoy, no attempts left
)

// Result is reported once when a session completes.
type Result struct {
	SessionID   string            `json:"sessionId"`
	GameID      string            `json:"gameId"`
	Difficulty  puzzle.Difficulty `json:"difficulty"`
	Score       int               `json:"score"`
	TotalRounds int               `json:"totalRounds"`
	Stars       int               `json:"stars"`
	BestStreak  int               `json:"bestStreak"`
	Elapsed     time.Duration     `json:"elapsed"`
}

// Reporter receives the final result of a completed session.
type Reporter interface {
	Report(Result)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Result)

func (f ReporterFunc) Report(r Result) { f(r) }

// View is a point-in-time copy of a session.
type View struct {
	ID            string            `json:"id"`
	GameID        string            `json:"gameId"`
	Concept       puzzle.Concept    `json:"concept"`
	Difficulty    puzzle.Difficulty `json:"difficulty"`
	Phase         Phase             `json:"phase"`
	Round         int               `json:"round"`
	TotalRounds   int               `json:"totalRounds"`
	Score         int               `json:"score"`
	Attempts      int               `json:"attempts"`
	Streak        int               `json:"streak"`
	BestStreak    int               `json:"bestStreak"`
	TimeLimit     int               `json:"timeLimit"`
	TimeRemaining int               `json:"timeRemaining"`
	Canvas        puzzle.Canvas     `json:"canvas"`
	Shape         puzzle.Shape      `json:"shape"`
	Lines         puzzle.LineSet    `json:"lines"`
	Revealed      bool              `json:"revealed"`
	Stars         int               `json:"stars"`
}

// Redacted hides which segment is the reference until the round reveals it.
func (v View) Redacted() View {
	if v.Revealed {
		return v
	}
	v.Lines = v.Lines.Clone()
	for i := range v.Lines.Segments {
		v.Lines.Segments[i].IsReference = false
	}
	return v
}
