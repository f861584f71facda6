package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func statusPtr(s Status) *Status { return &s }

func TestMerge_EmptyDeltaKeepsSequences(t *testing.T) {
	current := *NewGameState()
	current.Status = StatusPlaying
	current.NPCMemories = []string{"weird thread at the loom"}
	current.Stash = []StashEntry{PlainStash("brass needle")}
	current.DiscoveredCanon = []CanonEntry{{Title: "Barry Lyndon", Description: "A duel of candles."}}

	merged := Merge(current, &Delta{})

	assert.Equal(t, current.NPCMemories, merged.NPCMemories)
	assert.Equal(t, current.Stash, merged.Stash)
	assert.Equal(t, current.DiscoveredCanon, merged.DiscoveredCanon)
	assert.Equal(t, current.Integrity, merged.Integrity)
	assert.Equal(t, StatusPlaying, merged.Status)
}

func TestMerge_AppendOnlySequences(t *testing.T) {
	current := *NewGameState()
	current.Stash = []StashEntry{PlainStash("a"), PlainStash("b")}

	merged := Merge(current, &Delta{
		Stash: []StashEntry{PlainStash("c")},
	})

	require.Len(t, merged.Stash, 3)
	assert.Equal(t, "a", merged.Stash[0].Display())
	assert.Equal(t, "b", merged.Stash[1].Display())
	assert.Equal(t, "c", merged.Stash[2].Display())
}

func TestMerge_DuplicatesAreKept(t *testing.T) {
	current := *NewGameState()
	current.NPCMemories = []string{"pulled the thread"}

	merged := Merge(current, &Delta{NPCMemories: []string{"pulled the thread"}})

	// A repeated memory is a meaningful signal, not a dedup candidate.
	assert.Equal(t, []string{"pulled the thread", "pulled the thread"}, merged.NPCMemories)
}

func TestMerge_ScalarOverwrite(t *testing.T) {
	current := *NewGameState()

	merged := Merge(current, &Delta{
		Integrity:          intPtr(80),
		WeirdnessSignature: intPtr(42),
	})

	assert.Equal(t, 80, merged.Integrity)
	assert.Equal(t, 42, merged.WeirdnessSignature)
	// Absent scalars keep their current values.
	assert.Equal(t, 50, merged.Will)
	assert.Equal(t, 120, merged.ThreadCount)
}

func TestMerge_ReplaceSequences(t *testing.T) {
	current := *NewGameState()
	current.ActiveThreats = []Enemy{{Name: "The Mono-Archon", Type: ArchetypeBulwark, Integrity: 40, MaxIntegrity: 40}}
	current.Morphemes = []Morpheme{{Root: "GnOsiS", Rarity: RarityGnostic}}

	t.Run("presence replaces wholesale", func(t *testing.T) {
		merged := Merge(current, &Delta{
			ActiveThreats: []Enemy{{Name: "The Seamstress", Type: ArchetypeWeaver, Integrity: 60, MaxIntegrity: 60}},
		})
		require.Len(t, merged.ActiveThreats, 1)
		assert.Equal(t, "The Seamstress", merged.ActiveThreats[0].Name)
		assert.Equal(t, current.Morphemes, merged.Morphemes)
	})

	t.Run("empty non-nil clears the encounter", func(t *testing.T) {
		merged := Merge(current, &Delta{ActiveThreats: []Enemy{}})
		assert.Empty(t, merged.ActiveThreats)
	})

	t.Run("absence leaves untouched", func(t *testing.T) {
		merged := Merge(current, &Delta{})
		assert.Equal(t, current.ActiveThreats, merged.ActiveThreats)
	})
}

func TestMerge_StatusDerivation(t *testing.T) {
	tests := []struct {
		name      string
		prior     Status
		delta     *Delta
		expect    Status
	}{
		{
			name:   "explicit status wins",
			prior:  StatusPlaying,
			delta:  &Delta{Status: statusPtr(StatusCourtroom)},
			expect: StatusCourtroom,
		},
		{
			name:   "integrity at zero forces gameover",
			prior:  StatusPlaying,
			delta:  &Delta{Integrity: intPtr(0)},
			expect: StatusGameOver,
		},
		{
			name:   "negative integrity forces gameover",
			prior:  StatusStart,
			delta:  &Delta{Integrity: intPtr(-5)},
			expect: StatusGameOver,
		},
		{
			name:   "positive integrity defaults to playing",
			prior:  StatusStart,
			delta:  &Delta{Integrity: intPtr(80)},
			expect: StatusPlaying,
		},
		{
			name:   "no delta fields still defaults to playing",
			prior:  StatusStart,
			delta:  &Delta{},
			expect: StatusPlaying,
		},
		{
			name:   "gameover is terminal without explicit status",
			prior:  StatusGameOver,
			delta:  &Delta{Integrity: intPtr(100)},
			expect: StatusGameOver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := *NewGameState()
			current.Status = tt.prior
			merged := Merge(current, tt.delta)
			assert.Equal(t, tt.expect, merged.Status)
		})
	}
}

func TestMerge_DerivationSeesPostMergeIntegrity(t *testing.T) {
	// The delta supplies integrity 0 alongside other fields; the derivation
	// must run against the merged value, not the pre-merge 100.
	current := *NewGameState()
	current.Status = StatusPlaying

	merged := Merge(current, &Delta{
		Integrity:   intPtr(0),
		ThreadCount: intPtr(900),
	})

	assert.Equal(t, StatusGameOver, merged.Status)
	assert.Equal(t, 900, merged.ThreadCount)
}

func TestMerge_NilDelta(t *testing.T) {
	current := *NewGameState()
	merged := Merge(current, nil)
	assert.Equal(t, StatusPlaying, merged.Status)
	assert.Equal(t, current.Integrity, merged.Integrity)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	current := *NewGameState()
	current.Status = StatusPlaying
	current.NPCMemories = []string{"original"}

	_ = Merge(current, &Delta{
		Integrity:   intPtr(10),
		NPCMemories: []string{"added"},
	})

	assert.Equal(t, 100, current.Integrity)
	assert.Equal(t, []string{"original"}, current.NPCMemories)
}

func TestDelta_Validate(t *testing.T) {
	t.Run("valid archetypes pass", func(t *testing.T) {
		d := &Delta{ActiveThreats: []Enemy{{Name: "X", Type: ArchetypeStalker}}}
		require.NoError(t, d.Validate())
	})

	t.Run("lowercase archetype is normalized", func(t *testing.T) {
		d := &Delta{ActiveThreats: []Enemy{{Name: "X", Type: "weaver"}}}
		require.NoError(t, d.Validate())
		assert.Equal(t, ArchetypeWeaver, d.ActiveThreats[0].Type)
	})

	t.Run("unknown archetype fails", func(t *testing.T) {
		d := &Delta{ActiveThreats: []Enemy{{Name: "X", Type: "Lich"}}}
		assert.Error(t, d.Validate())
	})

	t.Run("unknown status fails", func(t *testing.T) {
		bad := Status("paused")
		d := &Delta{Status: &bad}
		assert.Error(t, d.Validate())
	})

	t.Run("nil delta passes", func(t *testing.T) {
		var d *Delta
		assert.NoError(t, d.Validate())
	})
}

func TestDelta_IsEmpty(t *testing.T) {
	assert.True(t, (&Delta{}).IsEmpty())
	assert.True(t, (*Delta)(nil).IsEmpty())
	assert.False(t, (&Delta{Integrity: intPtr(1)}).IsEmpty())
	assert.False(t, (&Delta{NPCMemories: []string{"m"}}).IsEmpty())
}
