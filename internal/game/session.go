// internal/game/session.go
//
// Round/session state machine for one player.
// Responsibilities:
//   - Start a session: reset score, streak and round, then open round 1.
//   - Apply clicks: resolve the pointer to a segment, score it, burn attempts.
//   - Apply timer ticks: count down and fail the round at zero.
//   - Advance rounds after a cancellable acknowledgment delay.
//   - Finish: compute stars and report the result exactly once.
//
// Concurrency:
//   - Every transition holds s.mu for its whole duration, so clicks, ticks
//     and delayed advances never interleave.
//   - A delayed advance carries the round token it was scheduled for; a stale
//     one is dropped instead of advancing twice.
//   - While an answer is being acknowledged (processing) clicks and ticks are ignored.
//
// If attempts run out in the same tick the timer would have expired, the
// exhaustion wins: it marks the round processing and the tick becomes a no-op.

package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquest/internal/geom"
	"github.com/robalobadob/geoquest/internal/puzzle"
)

const (
	defaultTotalRounds = 15
	maxShapeRetries    = 10
)

// Delays are the pauses between a round ending and the next one starting.
type Delays struct {
	Correct   time.Duration
	Exhausted time.Duration
	Timeout   time.Duration
}

// DefaultDelays keeps the wrong-answer reveal on screen longer than a hit.
var DefaultDelays = Delays{
	Correct:   1500 * time.Millisecond,
	Exhausted: 2500 * time.Millisecond,
	Timeout:   2000 * time.Millisecond,
}

// Options configure a session. Zero fields take defaults.
type Options struct {
	GameID       string
	Concept      puzzle.Concept
	Difficulty   puzzle.Difficulty
	TotalRounds  int
	Canvas       puzzle.Canvas
	HitThreshold float64
	Delays       Delays
	Rand         *rand.Rand
	Scheduler    Scheduler
	Reporter     Reporter
	Clock        func() time.Time
}

func (o *Options) defaults() {
	if o.Concept == "" {
		o.Concept = puzzle.Concept(o.GameID)
	}
	if o.GameID == "" {
		o.GameID = string(o.Concept)
	}
	if o.TotalRounds <= 0 {
		o.TotalRounds = defaultTotalRounds
	}
	if o.Canvas == (puzzle.Canvas{}) {
		o.Canvas = puzzle.DefaultCanvas
	}
	if o.HitThreshold <= 0 {
		o.HitThreshold = puzzle.DefaultHitThreshold
	}
	if o.Delays == (Delays{}) {
		o.Delays = DefaultDelays
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Scheduler == nil {
		o.Scheduler = RealScheduler
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Session is the single authoritative state of one play-through.
type Session struct {
	mu   sync.Mutex
	id   string
	opts Options
	tier puzzle.Tier

	gen     *puzzle.Generator
	builder *puzzle.Builder

	phase         Phase
	round         int
	score         int
	attempts      int
	streak        int
	bestStreak    int
	timeRemaining int
	shape         puzzle.Shape
	lines         puzzle.LineSet
	revealed      bool
	processing    bool
	stars         int

	token    int
	pending  Timer
	started  time.Time
	run      int
	reported int
	done     chan struct{}
}

// NewSession builds an idle session; call Start to open round 1.
func NewSession(id string, opts Options) *Session {
	opts.defaults()
	return &Session{
		id:      id,
		opts:    opts,
		tier:    opts.Difficulty.Tier(),
		gen:     puzzle.NewGenerator(opts.Canvas, opts.Rand),
		builder: puzzle.NewBuilder(opts.Rand),
		phase:   PhaseIdle,
		done:    make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start resets the counters and opens the first round. Calling it on a
// finished session starts a fresh play-through.
func (s *Session) Start() {
	s.mu.Lock()
	s.cancelPendingLocked()
	if s.phase.Terminal() {
		s.done = make(chan struct{})
	}
	s.round, s.score, s.streak, s.bestStreak, s.stars = 0, 0, 0, 0, 0
	s.run++
	s.started = s.opts.Clock()
	log.Debug().Str("session", s.id).Str("game", s.opts.GameID).
		Stringer("difficulty", s.opts.Difficulty).Msg("session started")
	finished := s.nextRoundLocked()
	res, run := s.resultLocked(), s.run
	s.mu.Unlock()

	if finished {
		s.report(res, run)
	}
}

// Click applies a pointer press at p (canvas coordinates).
func (s *Session) Click(p geom.Point) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive || s.processing {
		return OutcomeIgnored
	}
	idx := puzzle.Resolve(s.lines, p, s.opts.HitThreshold)
	if idx < 0 {
		return OutcomeNone
	}
	seg := &s.lines.Segments[idx]

	if seg.IsReference {
		s.score++
		s.streak++
		if s.streak > s.bestStreak {
			s.bestStreak = s.streak
		}
		s.endRoundLocked(PhaseAnswered, s.opts.Delays.Correct)
		return OutcomeCorrect
	}

	s.attempts--
	s.streak = 0
	seg.Selected = true
	if s.attempts > 0 {
		return OutcomeWrong
	}
	s.endRoundLocked(PhaseExhausted, s.opts.Delays.Exhausted)
	return OutcomeExhausted
}

// Tick consumes one second of the round's countdown.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive || s.processing || s.attempts <= 0 {
		return
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining == 0 {
		s.streak = 0
		s.endRoundLocked(PhaseTimedOut, s.opts.Delays.Timeout)
	}
}

// Abort ends the session early without reporting a result.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase.Terminal() {
		return
	}
	s.cancelPendingLocked()
	s.phase = PhaseAborted
	s.processing = true
	close(s.done)
	log.Debug().Str("session", s.id).Int("round", s.round).Msg("session aborted")
}

// Done is closed once the session completes or is aborted.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Snapshot copies the current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:            s.id,
		GameID:        s.opts.GameID,
		Concept:       s.opts.Concept,
		Difficulty:    s.opts.Difficulty,
		Phase:         s.phase,
		Round:         s.round,
		TotalRounds:   s.opts.TotalRounds,
		Score:         s.score,
		Attempts:      s.attempts,
		Streak:        s.streak,
		BestStreak:    s.bestStreak,
		TimeLimit:     s.tier.TimeLimit,
		TimeRemaining: s.timeRemaining,
		Canvas:        s.opts.Canvas,
		Shape:         s.shape,
		Lines:         s.lines.Clone(),
		Revealed:      s.revealed,
		Stars:         s.stars,
	}
}

// endRoundLocked reveals the reference, blocks input and schedules the advance.
func (s *Session) endRoundLocked(phase Phase, delay time.Duration) {
	s.phase = phase
	s.revealed = true
	s.processing = true
	s.cancelPendingLocked()
	tok := s.token
	s.pending = s.opts.Scheduler.AfterFunc(delay, func() { s.advance(tok) })
}

func (s *Session) advance(tok int) {
	s.mu.Lock()
	if tok != s.token || s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	finished := s.nextRoundLocked()
	res, run := s.resultLocked(), s.run
	s.mu.Unlock()

	if finished {
		s.report(res, run)
	}
}

// nextRoundLocked opens the next round or completes the session. It reports
// true when the session just completed.
func (s *Session) nextRoundLocked() bool {
	s.cancelPendingLocked()
	s.token++

	if s.round >= s.opts.TotalRounds {
		s.phase = PhaseComplete
		s.processing = true
		s.stars = StarRating(s.score, s.opts.TotalRounds)
		close(s.done)
		log.Info().Str("session", s.id).Str("game", s.opts.GameID).
			Int("score", s.score).Int("total", s.opts.TotalRounds).Int("stars", s.stars).
			Msg("session complete")
		return true
	}

	s.round++
	s.attempts = s.tier.Attempts
	s.timeRemaining = s.tier.TimeLimit
	s.shape, s.lines = s.newRoundLocked()
	s.revealed = false
	s.processing = false
	s.phase = PhaseActive
	return false
}

// newRoundLocked generates a shape and its candidates, regenerating on
// degenerate geometry and falling back to the canonical triangle.
func (s *Session) newRoundLocked() (puzzle.Shape, puzzle.LineSet) {
	for i := 0; i < maxShapeRetries; i++ {
		shape := s.gen.Generate(s.opts.Difficulty)
		ls, err := s.builder.Build(shape, s.opts.Concept, s.opts.Difficulty)
		if err == nil {
			return shape, ls
		}
		log.Debug().Err(err).Str("session", s.id).Int("retry", i).Msg("regenerating shape")
	}
	shape := s.gen.Fallback()
	ls, err := s.builder.Build(shape, s.opts.Concept, s.opts.Difficulty)
	if err != nil {
		log.Warn().Err(err).Str("session", s.id).Msg("fallback shape unusable")
	}
	return shape, ls
}

func (s *Session) cancelPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) resultLocked() Result {
	return Result{
		SessionID:   s.id,
		GameID:      s.opts.GameID,
		Difficulty:  s.opts.Difficulty,
		Score:       s.score,
		TotalRounds: s.opts.TotalRounds,
		Stars:       s.stars,
		BestStreak:  s.bestStreak,
		Elapsed:     s.opts.Clock().Sub(s.started),
	}
}

// report hands the result of play-through run to the reporter once. It runs
// without s.mu so reporters may read the session. A restart between the
// unlock and this call does not swallow the new run's report.
func (s *Session) report(r Result, run int) {
	s.mu.Lock()
	if run <= s.reported {
		s.mu.Unlock()
		return
	}
	s.reported = run
	s.mu.Unlock()

	if s.opts.Reporter != nil {
		s.opts.Reporter.Report(r)
	}
}
