package signals

import (
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestScheduler() *Scheduler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewScheduler(logger)
}

func TestScheduler_ClearFiresAfterWindow(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()
	sessionID := uuid.New()

	cleared := make(chan struct{})
	s.Activate(sessionID, KeyMemory, 20*time.Millisecond, func() { close(cleared) })

	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("clear never fired")
	}
}

func TestScheduler_ReactivationCancelsPendingClear(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()
	sessionID := uuid.New()

	var firstCleared, secondCleared atomic.Bool
	s.Activate(sessionID, KeyMemory, 30*time.Millisecond, func() { firstCleared.Store(true) })

	// Re-activate before the first window elapses. The first timer must not
	// clear the second payload.
	time.Sleep(10 * time.Millisecond)
	s.Activate(sessionID, KeyMemory, 60*time.Millisecond, func() { secondCleared.Store(true) })

	time.Sleep(40 * time.Millisecond)
	assert.False(t, firstCleared.Load(), "superseded clear fired")
	assert.False(t, secondCleared.Load(), "second clear fired early")

	time.Sleep(50 * time.Millisecond)
	assert.False(t, firstCleared.Load())
	assert.True(t, secondCleared.Load(), "second clear never fired")
}

func TestScheduler_SlotsAreIndependent(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()
	sessionID := uuid.New()

	var memoryCleared, harvestCleared atomic.Bool
	s.Activate(sessionID, KeyMemory, 20*time.Millisecond, func() { memoryCleared.Store(true) })
	s.Activate(sessionID, KeyHarvest, 200*time.Millisecond, func() { harvestCleared.Store(true) })

	time.Sleep(60 * time.Millisecond)
	assert.True(t, memoryCleared.Load())
	assert.False(t, harvestCleared.Load(), "harvest cleared by memory window")
}

func TestScheduler_Cancel(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()
	sessionID := uuid.New()

	var cleared atomic.Bool
	s.Activate(sessionID, KeyMemory, 20*time.Millisecond, func() { cleared.Store(true) })
	s.Cancel(sessionID, KeyMemory)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, cleared.Load(), "cancelled clear fired")
}

func TestScheduler_CancelSession(t *testing.T) {
	s := newTestScheduler()
	defer s.Stop()
	sessionA := uuid.New()
	sessionB := uuid.New()

	var aCleared, bCleared atomic.Bool
	s.Activate(sessionA, KeyMemory, 20*time.Millisecond, func() { aCleared.Store(true) })
	s.Activate(sessionA, KeyHarvest, 20*time.Millisecond, func() { aCleared.Store(true) })
	s.Activate(sessionB, KeyMemory, 20*time.Millisecond, func() { bCleared.Store(true) })

	s.CancelSession(sessionA)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, aCleared.Load(), "cancelled session clear fired")
	assert.True(t, bCleared.Load(), "unrelated session was cancelled")
}
