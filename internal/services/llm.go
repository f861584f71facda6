package services

import (
	"context"

	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

// GenerationService defines the interface for the generation backend that
// drives turns, hints, and scene images.
type GenerationService interface {
	// GenerateTurn submits a player action with trailing history and returns
	// the structured turn payload. An optional style image (base64 data URL)
	// conditions the narration.
	GenerateTurn(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error)

	// GenerateHint returns a cryptic etymology hint for the current state.
	GenerateHint(ctx context.Context, gs *state.GameState) (string, error)

	// GenerateImage renders the scene prompt, optionally conditioned on a
	// style image. A nil result with nil error means the model returned no
	// image; that is a valid outcome, not a failure.
	GenerateImage(ctx context.Context, prompt string, styleImage string) ([]byte, error)
}
