// Package turn defines the wire types exchanged between the client surface,
// the orchestrator, and the generation service for one player turn.
package turn

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/pkg/state"
)

// Reserved action prefixes. Actions of these kinds are system submissions
// (ritual construction, architect-log lore) and are not echoed to the
// transcript as user messages.
const (
	RitualActionPrefix    = "[RITUAL"
	ArchitectActionPrefix = "[ARCHITECT"
)

// DefaultChoices is the fallback choice triple used when the generation
// service omits choices from a response.
var DefaultChoices = []string{
	"Follow the Thread",
	"Check the Stitch Count",
	"Speak to the Weaver",
}

// Request is a player action submitted against a session.
type Request struct {
	SessionID uuid.UUID `json:"session_id"`
	Action    string    `json:"action"`
}

func (r *Request) Validate() error {
	if r.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}

// GameResponse is the structured payload the generation service returns for
// one turn. Malformed JSON is a hard failure for the turn.
type GameResponse struct {
	Narration        string                `json:"narration"`
	Choices          []string              `json:"choices"`
	StateUpdate      *state.Delta          `json:"stateUpdate"`
	ImagePrompt      string                `json:"imagePrompt"`
	MemoryReferenced string                `json:"memoryReferenced,omitempty"`
	HarvestResults   *state.HarvestResults `json:"harvestResults,omitempty"`
}

// Result is what a completed turn hands back to the client surface. The
// image is not included; it arrives asynchronously once generated.
type Result struct {
	SessionID        uuid.UUID             `json:"session_id"`
	Narration        string                `json:"narration"`
	Choices          []string              `json:"choices"`
	State            state.GameState       `json:"state"`
	MemoryReferenced string                `json:"memoryReferenced,omitempty"`
	HarvestResults   *state.HarvestResults `json:"harvestResults,omitempty"`
}

// IsSystemAction reports whether the action is one of the reserved kinds
// that skip the optimistic transcript echo.
func IsSystemAction(action string) bool {
	return strings.HasPrefix(action, RitualActionPrefix) ||
		strings.HasPrefix(action, ArchitectActionPrefix)
}
