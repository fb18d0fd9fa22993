package arrivals

import (
	"context"
	"sync"
	"time"
)

// TickFunc receives the rendered countdown for one entry on every tick.
type TickFunc func(remaining time.Duration, label string)

type countdownEntry struct {
	id     uint64
	viewID string
	target time.Time
	fn     TickFunc
}

// Handle cancels a single countdown entry.
type Handle struct {
	s  *Scheduler
	id uint64
}

// Cancel removes the entry from the scheduler. Safe to call more than
// once.
func (h Handle) Cancel() {
	if h.s == nil {
		return
	}
	h.s.mu.Lock()
	delete(h.s.entries, h.id)
	h.s.mu.Unlock()
}

// Scheduler drives every active countdown off one shared ticker instead
// of one timer per entry. Entries are grouped under a caller-chosen view
// id so a whole view's countdowns can be dropped before it re-renders.
type Scheduler struct {
	interval time.Duration

	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]countdownEntry
}

// NewScheduler returns a scheduler ticking at interval; zero or negative
// means one second.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		interval: interval,
		entries:  map[uint64]countdownEntry{},
	}
}

// Add registers a countdown toward target under viewID. fn runs
// immediately and then once per tick until the handle or its view is
// cancelled.
func (s *Scheduler) Add(viewID string, target time.Time, fn TickFunc) Handle {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.entries[id] = countdownEntry{id: id, viewID: viewID, target: target, fn: fn}
	s.mu.Unlock()

	rem := Remaining(target, time.Now())
	fn(rem, FormatRemaining(rem))
	return Handle{s: s, id: id}
}

// CancelAll drops every entry registered under viewID.
func (s *Scheduler) CancelAll(viewID string) {
	s.mu.Lock()
	for id, e := range s.entries {
		if e.viewID == viewID {
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
}

// Len reports the number of active entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run ticks until ctx is cancelled. Callbacks run outside the scheduler
// lock.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	batch := make([]countdownEntry, 0, len(s.entries))
	for _, e := range s.entries {
		batch = append(batch, e)
	}
	s.mu.Unlock()

	for _, e := range batch {
		rem := Remaining(e.target, now)
		e.fn(rem, FormatRemaining(rem))
	}
}
