// Package signals runs the ephemeral UI signal timers. A signal activates
// with a payload and self-clears after its window unless re-activated first;
// re-activation cancels the pending clear so an old timer can never wipe a
// newer payload.
package signals

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Key identifies a signal slot within a session.
type Key string

const (
	KeyMemory  Key = "memory"
	KeyHarvest Key = "harvest"
)

// Default signal windows.
const (
	DefaultMemoryDuration  = 6 * time.Second
	DefaultHarvestDuration = 8 * time.Second
)

type slotID struct {
	session uuid.UUID
	key     Key
}

type slot struct {
	timer *time.Timer
	seq   uint64
}

// Scheduler owns the active signal timers. One scheduler serves all
// sessions.
type Scheduler struct {
	mu     sync.Mutex
	slots  map[slotID]*slot
	seq    uint64
	logger *slog.Logger
}

// NewScheduler creates a new signal scheduler
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		slots:  make(map[slotID]*slot),
		logger: logger,
	}
}

// Activate arms the signal's clear timer. Any pending clear for the same
// slot is cancelled first; clear runs once, after the full duration, unless
// a later Activate or Cancel supersedes it.
func (s *Scheduler) Activate(sessionID uuid.UUID, key Key, duration time.Duration, clear func()) {
	id := slotID{session: sessionID, key: key}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.slots[id]; ok {
		existing.timer.Stop()
	}

	s.seq++
	seq := s.seq

	timer := time.AfterFunc(duration, func() {
		if !s.claim(id, seq) {
			return
		}
		clear()
	})
	s.slots[id] = &slot{timer: timer, seq: seq}
}

// claim removes the slot if it still belongs to seq. A false return means a
// later Activate or Cancel superseded this timer between fire and lock.
func (s *Scheduler) claim(id slotID, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.slots[id]
	if !ok || current.seq != seq {
		return false
	}
	delete(s.slots, id)
	return true
}

// Cancel stops the pending clear for one slot without running it.
func (s *Scheduler) Cancel(sessionID uuid.UUID, key Key) {
	id := slotID{session: sessionID, key: key}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.slots[id]; ok {
		existing.timer.Stop()
		delete(s.slots, id)
	}
}

// CancelSession stops every pending clear for a session. Used when the
// session is deleted.
func (s *Scheduler) CancelSession(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sl := range s.slots {
		if id.session == sessionID {
			sl.timer.Stop()
			delete(s.slots, id)
		}
	}
}

// Stop cancels all timers across all sessions.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sl := range s.slots {
		sl.timer.Stop()
		delete(s.slots, id)
	}
	s.logger.Debug("Signal scheduler stopped")
}
