// Package storage persists session gamestates. Sessions are memory-only by
// default; the Redis backend is an optional cache for multi-process
// deployments.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/pkg/state"
)

// Storage is the session persistence interface. Load returns (nil, nil) when
// the session does not exist.
type Storage interface {
	SaveSession(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
	Close() error
}
