package state

import (
	"encoding/json"
	"fmt"
)

// Rarity grades artifacts and morphemes.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityMythic    Rarity = "Mythic"
	RarityGnostic   Rarity = "Gnostic"
	RarityQuantum   Rarity = "Quantum"
	RarityLegacy    Rarity = "Legacy"
	RarityCinematic Rarity = "Cinematic"
)

// Archetype is the closed set of adversary kinds the generation service
// may return.
type Archetype string

const (
	ArchetypeStalker        Archetype = "Stalker"
	ArchetypeWeaver         Archetype = "Weaver"
	ArchetypeBulwark        Archetype = "Bulwark"
	ArchetypeSingularity    Archetype = "Singularity"
	ArchetypeQuantumPhantom Archetype = "Quantum-Phantom"
)

// Archetypes lists all valid adversary kinds.
var Archetypes = []Archetype{
	ArchetypeStalker,
	ArchetypeWeaver,
	ArchetypeBulwark,
	ArchetypeSingularity,
	ArchetypeQuantumPhantom,
}

// Enemy is one adversary in the current encounter.
type Enemy struct {
	Name             string    `json:"name"`
	Type             Archetype `json:"type"`
	Integrity        int       `json:"integrity"`
	MaxIntegrity     int       `json:"maxIntegrity"`
	Description      string    `json:"description"`
	LexicalSignature string    `json:"lexicalSignature"` // e.g. "MONO-ARCHON"
	Weakness         string    `json:"weakness,omitempty"`
	IsEntangled      bool      `json:"isEntangled,omitempty"`
}

// Artifact is a structured stash entry harvested from player logs.
type Artifact struct {
	Name        string `json:"name"`
	Rarity      Rarity `json:"rarity"`
	Effect      string `json:"effect"`
	Essence     string `json:"essence"` // Legal, Hermetic, Biological, Akashic, Cinematic
	Description string `json:"description,omitempty"`
}

// Morpheme is a deconstructed word-root the player has collected.
type Morpheme struct {
	Root       string `json:"root"`
	Power      string `json:"power"`
	Effect     string `json:"effect"`
	OriginWord string `json:"originWord"`
	Rarity     Rarity `json:"rarity"`
	Complexity int    `json:"complexity"`
}

// CanonEntry is one piece of discovered lore.
type CanonEntry struct {
	Title           string `json:"title"`
	Description     string `json:"desc"`
	WeakEnding      string `json:"weakEnding,omitempty"` // cryptic clue about the narrative's weakness
	IsUserGenerated bool   `json:"isUserGenerated,omitempty"`
}

// StashEntry is a union: either a plain label or a structured artifact. The
// generation service emits both forms, so the wire format is preserved
// exactly (a JSON string or a JSON object).
type StashEntry struct {
	Label    string
	Artifact *Artifact
}

// PlainStash wraps a label as a stash entry.
func PlainStash(label string) StashEntry {
	return StashEntry{Label: label}
}

// ArtifactStash wraps an artifact as a stash entry.
func ArtifactStash(a Artifact) StashEntry {
	return StashEntry{Artifact: &a}
}

// Display returns the entry's display name.
func (s StashEntry) Display() string {
	if s.Artifact != nil {
		return s.Artifact.Name
	}
	return s.Label
}

func (s StashEntry) MarshalJSON() ([]byte, error) {
	if s.Artifact != nil {
		return json.Marshal(s.Artifact)
	}
	return json.Marshal(s.Label)
}

func (s *StashEntry) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		s.Label = label
		s.Artifact = nil
		return nil
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("stash entry is neither a label nor an artifact: %w", err)
	}
	s.Label = ""
	s.Artifact = &artifact
	return nil
}

// HarvestResults reports the outcome of lore synthesis for one turn.
type HarvestResults struct {
	NoveltyScore int       `json:"noveltyScore"`
	Rarity       Rarity    `json:"rarity"`
	Comment      string    `json:"comment"`
	Artifact     *Artifact `json:"artifact,omitempty"`
}
