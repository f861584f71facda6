package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/pkg/state"
)

// MemoryStorage holds sessions in-process. This is the default backend:
// sessions live only as long as the server does.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*state.GameState
	closed   bool
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[uuid.UUID]*state.GameState),
	}
}

func (m *MemoryStorage) SaveSession(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	gs.UpdatedAt = time.Now()

	// Store a copy so later mutations by the caller do not leak in.
	stored := *gs

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &stored
	return nil
}

func (m *MemoryStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gs, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	loaded := *gs
	return &loaded, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = make(map[uuid.UUID]*state.GameState)
	return nil
}
