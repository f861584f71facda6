package services

import (
	"context"
	"sync"

	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

// MockGenerationService is a mock implementation of GenerationService for
// testing
type MockGenerationService struct {
	GenerateTurnFunc  func(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error)
	GenerateHintFunc  func(ctx context.Context, gs *state.GameState) (string, error)
	GenerateImageFunc func(ctx context.Context, prompt string, styleImage string) ([]byte, error)

	// Track calls for testing
	GenerateTurnCalls  []GenerateTurnCall
	GenerateHintCalls  int
	GenerateImageCalls []GenerateImageCall

	mu sync.Mutex // protects all fields above
}

type GenerateTurnCall struct {
	Action     string
	History    []string
	StyleImage string
}

type GenerateImageCall struct {
	Prompt     string
	StyleImage string
}

var _ GenerationService = (*MockGenerationService)(nil)

// NewMockGenerationService creates a new mock generation service
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{
		GenerateTurnCalls:  make([]GenerateTurnCall, 0),
		GenerateImageCalls: make([]GenerateImageCall, 0),
	}
}

func (m *MockGenerationService) GenerateTurn(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error) {
	m.mu.Lock()
	m.GenerateTurnCalls = append(m.GenerateTurnCalls, GenerateTurnCall{
		Action:     action,
		History:    history,
		StyleImage: styleImage,
	})
	fn := m.GenerateTurnFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, gs, action, history, styleImage)
	}

	// Default behavior: a bare narration with an empty delta
	return &turn.GameResponse{
		Narration:   "The weave holds steady.",
		Choices:     []string{"Look closer", "Step back", "Pull a thread"},
		StateUpdate: &state.Delta{},
		ImagePrompt: "a steady weave",
	}, nil
}

func (m *MockGenerationService) GenerateHint(ctx context.Context, gs *state.GameState) (string, error) {
	m.mu.Lock()
	m.GenerateHintCalls++
	fn := m.GenerateHintFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, gs)
	}
	return "Mock hint", nil
}

func (m *MockGenerationService) GenerateImage(ctx context.Context, prompt string, styleImage string) ([]byte, error) {
	m.mu.Lock()
	m.GenerateImageCalls = append(m.GenerateImageCalls, GenerateImageCall{
		Prompt:     prompt,
		StyleImage: styleImage,
	})
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, styleImage)
	}
	return nil, nil
}

// TurnCallCount returns how many turn calls the mock has seen.
func (m *MockGenerationService) TurnCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateTurnCalls)
}

// ImageCallCount returns how many image calls the mock has seen.
func (m *MockGenerationService) ImageCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateImageCalls)
}
