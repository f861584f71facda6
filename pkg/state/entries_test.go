package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStashEntry_JSON(t *testing.T) {
	t.Run("plain label round trip", func(t *testing.T) {
		data, err := json.Marshal(PlainStash("brass needle"))
		require.NoError(t, err)
		assert.Equal(t, `"brass needle"`, string(data))

		var entry StashEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, "brass needle", entry.Label)
		assert.Nil(t, entry.Artifact)
	})

	t.Run("artifact round trip", func(t *testing.T) {
		original := ArtifactStash(Artifact{
			Name:    "Subpoena of the Demi",
			Rarity:  RarityGnostic,
			Effect:  "Compels a threat to testify",
			Essence: "Legal",
		})
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var entry StashEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		require.NotNil(t, entry.Artifact)
		assert.Equal(t, "Subpoena of the Demi", entry.Artifact.Name)
		assert.Equal(t, RarityGnostic, entry.Artifact.Rarity)
		assert.Empty(t, entry.Label)
	})

	t.Run("mixed stash decodes", func(t *testing.T) {
		raw := `["a torn ticket", {"name":"Zeiss Shard","rarity":"Rare","effect":"","essence":"Cinematic"}]`
		var stash []StashEntry
		require.NoError(t, json.Unmarshal([]byte(raw), &stash))
		require.Len(t, stash, 2)
		assert.Equal(t, "a torn ticket", stash[0].Display())
		assert.Equal(t, "Zeiss Shard", stash[1].Display())
	})

	t.Run("invalid entry errors", func(t *testing.T) {
		var entry StashEntry
		assert.Error(t, json.Unmarshal([]byte(`42`), &entry))
	})
}

func TestNewGameState(t *testing.T) {
	gs := NewGameState()

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", gs.ID.String())
	assert.Equal(t, 100, gs.Integrity)
	assert.Equal(t, 100, gs.MaxIntegrity)
	assert.Equal(t, 50, gs.Will)
	assert.Equal(t, 50, gs.MaxWill)
	assert.Equal(t, 1, gs.Level)
	assert.Equal(t, 50, gs.ProbabilityAmplitude)
	assert.Equal(t, 15, gs.WeirdnessSignature)
	assert.Equal(t, 120, gs.ThreadCount)
	assert.Equal(t, 1, gs.ConceptionLevel)
	assert.Equal(t, "The Living Soul", gs.Identity)
	assert.Equal(t, StatusStart, gs.Status)
	assert.Equal(t, "Follow the Loose Thread in the Salt-Field", gs.CurrentQuest)
	assert.NotNil(t, gs.NPCMemories)
	assert.NotNil(t, gs.Stash)
	assert.NotNil(t, gs.History)
}

func TestTrailingHistory(t *testing.T) {
	gs := NewGameState()
	for _, text := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		gs.History = append(gs.History, HistoryEntry{Role: RoleUser, Text: text})
	}

	trailing := gs.TrailingHistory()

	require.Len(t, trailing, HistoryWindow)
	assert.Equal(t, []string{"three", "four", "five", "six", "seven"}, trailing)
}

func TestTrailingHistory_ShortTranscript(t *testing.T) {
	gs := NewGameState()
	gs.History = append(gs.History, HistoryEntry{Role: RoleAI, Text: "only"})

	assert.Equal(t, []string{"only"}, gs.TrailingHistory())
}

func TestCurrentEnemy(t *testing.T) {
	gs := NewGameState()
	assert.Nil(t, gs.CurrentEnemy())

	gs.ActiveThreats = []Enemy{
		{Name: "The Seamstress", Type: ArchetypeWeaver},
		{Name: "The Mono-Archon", Type: ArchetypeBulwark},
	}
	enemy := gs.CurrentEnemy()
	require.NotNil(t, enemy)
	assert.Equal(t, "The Seamstress", enemy.Name)
}
