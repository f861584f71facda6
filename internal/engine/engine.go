// Package engine owns live sessions: the authoritative state container, the
// turn orchestrator, and the async image task. All state mutation goes
// through the session's single merge point under its lock; everything else
// reads snapshots.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/internal/services"
	"github.com/threadware/collapse-engine/internal/services/events"
	"github.com/threadware/collapse-engine/internal/signals"
	"github.com/threadware/collapse-engine/internal/storage"
	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnInFlight    = errors.New("a turn is already in flight")
	ErrSessionOver     = errors.New("session has ended")
)

// session is the runtime container for one live session. The gamestate is
// the persisted record; the rest is per-process presentation state (current
// choices, latest scene image, active signals).
type session struct {
	mu sync.Mutex

	gs      state.GameState
	choices []string

	inFlight bool

	image     []byte
	imageTurn int

	memorySignal  string
	harvestSignal *state.HarvestResults
}

// Snapshot is a consistent read of a session.
type Snapshot struct {
	State         state.GameState       `json:"state"`
	Choices       []string              `json:"choices"`
	Image         []byte                `json:"image,omitempty"`
	MemorySignal  string                `json:"memory_signal,omitempty"`
	HarvestSignal *state.HarvestResults `json:"harvest_signal,omitempty"`
}

// Engine manages all live sessions.
type Engine struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	store       storage.Storage
	gen         services.GenerationService
	broadcaster *events.Broadcaster
	scheduler   *signals.Scheduler
	logger      *slog.Logger

	memoryDuration  time.Duration
	harvestDuration time.Duration
}

// NewEngine creates the session engine
func NewEngine(store storage.Storage, gen services.GenerationService, broadcaster *events.Broadcaster, scheduler *signals.Scheduler, memoryDuration, harvestDuration time.Duration, logger *slog.Logger) *Engine {
	if memoryDuration <= 0 {
		memoryDuration = signals.DefaultMemoryDuration
	}
	if harvestDuration <= 0 {
		harvestDuration = signals.DefaultHarvestDuration
	}
	return &Engine{
		sessions:        make(map[uuid.UUID]*session),
		store:           store,
		gen:             gen,
		broadcaster:     broadcaster,
		scheduler:       scheduler,
		logger:          logger,
		memoryDuration:  memoryDuration,
		harvestDuration: harvestDuration,
	}
}

// CreateSession seeds a fresh session and persists its initial record.
func (e *Engine) CreateSession(ctx context.Context) (*Snapshot, error) {
	gs := state.NewGameState()

	if err := e.store.SaveSession(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	sess := &session{
		gs:      *gs,
		choices: append([]string(nil), turn.DefaultChoices...),
	}

	e.mu.Lock()
	e.sessions[gs.ID] = sess
	e.mu.Unlock()

	e.logger.Info("Session created", "session_id", gs.ID)

	snap := sess.snapshot()
	return &snap, nil
}

// GetSession returns a snapshot, reloading from storage if the session is
// not resident (another instance created it, or the process restarted with
// a Redis-backed store).
func (e *Engine) GetSession(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	sess, err := e.resident(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := sess.snapshot()
	return &snap, nil
}

// DeleteSession discards a session, its timers, and its persisted record.
func (e *Engine) DeleteSession(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	_, existed := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()

	e.scheduler.CancelSession(id)

	if err := e.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	if !existed {
		// Deleting an unknown session is not an error; the record may only
		// exist in the shared store.
		e.logger.Debug("Deleted non-resident session", "session_id", id)
	}
	e.logger.Info("Session deleted", "session_id", id)
	return nil
}

// resident fetches the runtime container, rehydrating from storage when the
// session exists there but not in this process.
func (e *Engine) resident(ctx context.Context, id uuid.UUID) (*session, error) {
	e.mu.RLock()
	sess, ok := e.sessions[id]
	e.mu.RUnlock()
	if ok {
		return sess, nil
	}

	gs, err := e.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if sess, ok := e.sessions[id]; ok {
		return sess, nil
	}
	sess = &session{
		gs:      *gs,
		choices: append([]string(nil), turn.DefaultChoices...),
	}
	e.sessions[id] = sess
	return sess, nil
}

func (s *session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:         s.gs,
		Choices:       append([]string(nil), s.choices...),
		Image:         s.image,
		MemorySignal:  s.memorySignal,
		HarvestSignal: s.harvestSignal,
	}
}
