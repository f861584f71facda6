package state

import (
	"time"

	"github.com/google/uuid"
)

// Status is the coarse session state machine.
type Status string

const (
	StatusStart     Status = "start"
	StatusPlaying   Status = "playing"
	StatusGameOver  Status = "gameover"
	StatusCourtroom Status = "courtroom"
)

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// HistoryEntry is a single transcript line. The transcript is append-only
// and ordered chronologically.
type HistoryEntry struct {
	Role      string `json:"role"` // "user" or "ai"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// HistoryWindow is the number of trailing transcript entries sent to the
// generation service with each turn.
const HistoryWindow = 5

// GameState is the authoritative record for one play session. It is mutated
// only through Merge; everything else reads snapshots.
//
// Field names are camelCase on the wire because deltas arrive directly from
// the generation service's response schema.
type GameState struct {
	ID uuid.UUID `json:"id"`

	Integrity            int `json:"integrity"`
	MaxIntegrity         int `json:"maxIntegrity"`
	Will                 int `json:"will"`
	MaxWill              int `json:"maxWill"`
	Enlightenment        int `json:"enlightenment"`
	Level                int `json:"level"`
	Static               int `json:"static"`
	ProbabilityAmplitude int `json:"probabilityAmplitude"`
	WeirdnessSignature   int `json:"weirdnessSignature"` // 0-100, how "non-consensus" the player is
	ThreadCount          int `json:"threadCount"`        // 0-1000, density of tracked reality
	ConceptionLevel      int `json:"conceptionLevel"`    // 0-10, meta-awareness of the simulation
	Depth                int `json:"depth"`

	NPCMemories     []string     `json:"npcMemories"` // append-only, duplicates are meaningful
	Stash           []StashEntry `json:"stash"`       // append-only
	DiscoveredCanon []CanonEntry `json:"discoveredCanon"`
	Morphemes       []Morpheme   `json:"morphemes,omitempty"`
	ActiveThreats   []Enemy      `json:"activeThreats,omitempty"` // current encounter, replaced wholesale
	PaperbacksFound []string     `json:"paperbacksFound,omitempty"`
	LegalHistory    []string     `json:"legalHistory,omitempty"`

	Identity       string `json:"identity"`
	Status         Status `json:"status"`
	CurrentQuest   string `json:"currentQuest,omitempty"`
	CurrentCharges string `json:"currentCharges,omitempty"`
	HasLens        bool   `json:"hasLens,omitempty"`

	History []HistoryEntry `json:"history,omitempty"`

	// Turn increments once per merged turn. Image results arriving for an
	// older turn are discarded.
	Turn      int       `json:"turn"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewGameState returns the fixed initial record for a fresh session.
func NewGameState() *GameState {
	return &GameState{
		ID:                   uuid.New(),
		Integrity:            100,
		MaxIntegrity:         100,
		Will:                 50,
		MaxWill:              50,
		Level:                1,
		ProbabilityAmplitude: 50,
		WeirdnessSignature:   15,
		ThreadCount:          120,
		ConceptionLevel:      1,
		NPCMemories:          make([]string, 0),
		Stash:                make([]StashEntry, 0),
		DiscoveredCanon:      make([]CanonEntry, 0),
		Identity:             "The Living Soul",
		Status:               StatusStart,
		CurrentQuest:         "Follow the Loose Thread in the Salt-Field",
		History:              make([]HistoryEntry, 0),
	}
}

// TrailingHistory returns up to HistoryWindow transcript texts,
// oldest-to-newest, for inclusion in the next generation prompt.
func (gs *GameState) TrailingHistory() []string {
	entries := gs.History
	if len(entries) > HistoryWindow {
		entries = entries[len(entries)-HistoryWindow:]
	}
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}
	return texts
}

// CurrentEnemy returns the first active threat, or nil when there is no
// encounter in progress.
func (gs *GameState) CurrentEnemy() *Enemy {
	if len(gs.ActiveThreats) == 0 {
		return nil
	}
	return &gs.ActiveThreats[0]
}
