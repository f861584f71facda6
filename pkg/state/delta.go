package state

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Delta is the partial state update returned by the generation service for
// one turn. Each field category carries its own merge semantics:
//
//   - scalar pointers: overwrite when present, keep current when nil
//   - append sequences (NPCMemories, Stash, DiscoveredCanon): concatenated
//     onto the current sequence, never deduplicated
//   - replace sequences (ActiveThreats, Morphemes, PaperbacksFound,
//     LegalHistory): replaced wholesale when non-nil
//   - Status: derived after numeric fields when absent
type Delta struct {
	Integrity            *int `json:"integrity,omitempty"`
	MaxIntegrity         *int `json:"maxIntegrity,omitempty"`
	Will                 *int `json:"will,omitempty"`
	MaxWill              *int `json:"maxWill,omitempty"`
	Enlightenment        *int `json:"enlightenment,omitempty"`
	Level                *int `json:"level,omitempty"`
	Static               *int `json:"static,omitempty"`
	ProbabilityAmplitude *int `json:"probabilityAmplitude,omitempty"`
	WeirdnessSignature   *int `json:"weirdnessSignature,omitempty"`
	ThreadCount          *int `json:"threadCount,omitempty"`
	ConceptionLevel      *int `json:"conceptionLevel,omitempty"`
	Depth                *int `json:"depth,omitempty"`

	NPCMemories     []string     `json:"npcMemories,omitempty"`
	Stash           []StashEntry `json:"stash,omitempty"`
	DiscoveredCanon []CanonEntry `json:"discoveredCanon,omitempty"`

	Morphemes       []Morpheme `json:"morphemes,omitempty"`
	ActiveThreats   []Enemy    `json:"activeThreats,omitempty"`
	PaperbacksFound []string   `json:"paperbacksFound,omitempty"`
	LegalHistory    []string   `json:"legalHistory,omitempty"`

	Identity       *string `json:"identity,omitempty"`
	Status         *Status `json:"status,omitempty"`
	CurrentQuest   *string `json:"currentQuest,omitempty"`
	CurrentCharges *string `json:"currentCharges,omitempty"`
	HasLens        *bool   `json:"hasLens,omitempty"`
}

// IsEmpty reports whether the delta carries no changes at all.
func (d *Delta) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Integrity == nil && d.MaxIntegrity == nil && d.Will == nil &&
		d.MaxWill == nil && d.Enlightenment == nil && d.Level == nil &&
		d.Static == nil && d.ProbabilityAmplitude == nil &&
		d.WeirdnessSignature == nil && d.ThreadCount == nil &&
		d.ConceptionLevel == nil && d.Depth == nil &&
		len(d.NPCMemories) == 0 && len(d.Stash) == 0 &&
		len(d.DiscoveredCanon) == 0 && d.Morphemes == nil &&
		d.ActiveThreats == nil && d.PaperbacksFound == nil &&
		d.LegalHistory == nil && d.Identity == nil && d.Status == nil &&
		d.CurrentQuest == nil && d.CurrentCharges == nil && d.HasLens == nil
}

var archetypeCaser = cases.Title(language.English)

// Validate checks the delta at the trust boundary before it reaches Merge.
// Enum fields coming from the service are normalized and checked for
// membership; numeric ranges are deliberately not checked (the service is
// trusted, display layers clamp).
func (d *Delta) Validate() error {
	if d == nil {
		return nil
	}

	if d.Status != nil {
		switch *d.Status {
		case StatusStart, StatusPlaying, StatusGameOver, StatusCourtroom:
		default:
			return fmt.Errorf("unknown status %q", *d.Status)
		}
	}

	for i := range d.ActiveThreats {
		normalized, ok := normalizeArchetype(d.ActiveThreats[i].Type)
		if !ok {
			return fmt.Errorf("unknown threat archetype %q", d.ActiveThreats[i].Type)
		}
		d.ActiveThreats[i].Type = normalized
	}

	return nil
}

// normalizeArchetype maps case variants of a known archetype onto the
// canonical form. The service occasionally emits lowercase or shouting
// variants of the enum values.
func normalizeArchetype(a Archetype) (Archetype, bool) {
	titled := Archetype(archetypeCaser.String(string(a)))
	for _, known := range Archetypes {
		if a == known || titled == known {
			return known, true
		}
	}
	return a, false
}
