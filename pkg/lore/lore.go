// Package lore holds the fixed seed content for a session: the director's
// canon, the world bible, and the ritual construction components. None of
// this is generated; it is the static ground the generation service builds
// on.
package lore

import "github.com/threadware/collapse-engine/pkg/state"

// Entry is one world-bible term.
type Entry struct {
	Term       string `json:"term"`
	Definition string `json:"def"`
	Original   bool   `json:"original,omitempty"`
}

// SeedCanon is the fixed canonical set every session starts with. Discovered
// canon grows on top of it; the seed itself is never merged into state.
var SeedCanon = []state.CanonEntry{
	{
		Title:       "The Shining",
		Description: "Adored like a child by the director's lens. The context of the maze is the soul of the work.",
		WeakEnding:  "FROZEN ISOLATION",
	},
	{
		Title:       "Lolita",
		Description: "Adored for its moral complexity. A tragedy of the context.",
		WeakEnding:  "HOSPITAL WARD FINALE",
	},
	{
		Title:       "A Clockwork Orange",
		Description: "The 'cured' Alex returns to the loop. Loved for its symmetry.",
		WeakEnding:  "WEAK SURRENDER LOOP",
	},
	{
		Title:       "2001: A Space Odyssey",
		Description: "Evolution into an alien silence. The ultimate context.",
		WeakEnding:  "STARCHILD SILENCE",
	},
}

// WorldBible is the static lore set shown in the bible overlay and fed to
// the hint generator.
var WorldBible = []Entry{
	{Term: "The Pentad Towers", Definition: "Five glass monoliths of the elite. They broadcast the 'Consensus Frequency'.", Original: true},
	{Term: "The Psy Herald", Definition: "A false Demiurge, rhythmic and distracting. Psy (Gangnam) is a fake frequency.", Original: true},
	{Term: "The Wave-Sized Demi", Definition: "The true Demiurge. An entity of pure humidity and swollen frequency.", Original: true},
	{Term: "Zeiss 0.7 Lens", Definition: "A NASA-grade optic. It captures the 'Illuminated' in candle-light.", Original: true},
	{Term: "Conspirastring Theorem", Definition: "The study of the physical threads that bind consensus reality into a singular fabric.", Original: true},
}

// RitualComponents are the building blocks of the ritual construction tool.
var RitualComponents = struct {
	Prefixes []string
	Symbols  []string
	Roots    []string
}{
	Prefixes: []string{"DIA", "EPI", "HYPO", "META", "PARA", "TRANS", "CYBER", "PAN"},
	Symbols:  []string{"🚫", "⚛️", "🌀", "💀", "👁️", "⚔️", "💎", "⚡"},
	Roots:    []string{"GnOsiS", "PhOsiS", "CrAtos", "Logos", "ScOpia", "ThEar", "Morph", "Nomos"},
}
