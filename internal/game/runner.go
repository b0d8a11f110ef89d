package game

import (
	"context"
	"time"
)

// Run feeds ticks into s until the session finishes or ctx is cancelled.
func Run(ctx context.Context, s *Session, ticks <-chan time.Time) {
	done := s.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticks:
			s.Tick()
		}
	}
}

// RunRealtime drives s with a one-second wall-clock ticker.
func RunRealtime(ctx context.Context, s *Session) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	Run(ctx, s, t.C)
}
