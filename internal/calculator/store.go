package calculator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type storeEntry struct {
	machine  *Machine
	lastSeen time.Time
}

// Store keeps one Machine per browser session in memory.
type Store struct {
	mu       sync.Mutex
	machines map[string]*storeEntry
	sched    Scheduler
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates a store that drops machines unused for longer than idle.
func NewStore(sched Scheduler, idle time.Duration) *Store {
	return &Store{
		machines: make(map[string]*storeEntry),
		sched:    sched,
		idle:     idle,
		now:      time.Now,
	}
}

// SetNow overrides the time function (for testing).
func (s *Store) SetNow(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = fn
}

// Get returns the machine for sessionID, creating it in the loading state
// on first use.
func (s *Store) Get(sessionID string) *Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.machines[sessionID]
	if !ok {
		e = &storeEntry{machine: New(s.sched)}
		s.machines[sessionID] = e
	}
	e.lastSeen = s.now()
	return e.machine
}

// Remove discards the machine for sessionID.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	e, ok := s.machines[sessionID]
	delete(s.machines, sessionID)
	s.mu.Unlock()

	if ok {
		e.machine.Close()
	}
}

// Len returns the number of live machines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.machines)
}

// Sweep removes idle machines and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	cutoff := s.now().Add(-s.idle)
	var stale []*Machine
	for id, e := range s.machines {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.machine)
			delete(s.machines, id)
		}
	}
	s.mu.Unlock()

	for _, m := range stale {
		m.Close()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("swept idle calculators", "count", n)
			}
		}
	}
}
