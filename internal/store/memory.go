// internal/store/memory.go
//
// In-memory registry of live sessions.
// Each entry pairs a *game.Session with the player that owns it, a click
// rate limiter, and the cancel func of the goroutine feeding its timer.
//
// Characteristics:
//   - Keyed by session id in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; results survive through the progress store.
//   - Errors are returned for missing ids on Get().
//   - Finished sessions stay readable for FinishedGrace so clients can fetch
//     the final view; the first prune that sees one finished starts the clock.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/robalobadob/geoquest/internal/game"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Clicks allowed per second per session, and the burst on top of that.
const (
	clickRate  = 5
	clickBurst = 5
)

// FinishedGrace is how long a completed or aborted session outlives its end.
const FinishedGrace = 5 * time.Minute

// Entry is one live session.
type Entry struct {
	Session *game.Session
	Owner   string
	Limiter *rate.Limiter
	Created time.Time

	cancel     context.CancelFunc
	finishedAt time.Time
}

// NewEntry wraps a started session. cancel stops whatever drives its timer.
func NewEntry(s *game.Session, owner string, cancel context.CancelFunc) *Entry {
	return &Entry{
		Session: s,
		Owner:   owner,
		Limiter: rate.NewLimiter(clickRate, clickBurst),
		Created: time.Now(),
		cancel:  cancel,
	}
}

// Allow reports whether another click may be processed now.
func (e *Entry) Allow() bool { return e.Limiter.Allow() }

// Close stops the timer goroutine and aborts an unfinished session.
func (e *Entry) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.Session.Abort()
}

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces an entry.
	Save(ctx context.Context, e *Entry) error

	// Get retrieves an entry by session id.
	Get(ctx context.Context, id string) (*Entry, error)

	// Delete closes and removes an entry.
	Delete(ctx context.Context, id string) error

	// Prune closes and removes entries created more than ttl before now, and
	// entries that finished more than FinishedGrace before now.
	Prune(ctx context.Context, now time.Time, ttl time.Duration) int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Entry)}
}

func (m *memory) Save(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[e.Session.ID()]; ok && old != e {
		old.Close()
	}
	m.sessions[e.Session.ID()] = e
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.sessions[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.Close()
	return nil
}

func (m *memory) Prune(ctx context.Context, now time.Time, ttl time.Duration) int {
	m.mu.Lock()
	var stale []*Entry
	for id, e := range m.sessions {
		if e.finishedAt.IsZero() && finished(e.Session) {
			e.finishedAt = now
		}
		expired := e.Created.Before(now.Add(-ttl))
		settled := !e.finishedAt.IsZero() && now.Sub(e.finishedAt) >= FinishedGrace
		if expired || settled {
			stale = append(stale, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.Close()
	}
	return len(stale)
}

func finished(s *game.Session) bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}
