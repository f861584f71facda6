package state

// Merge reconciles a delta into the current state and returns the merged
// result. The input state is not modified; callers replace their copy with
// the return value so readers only ever see complete snapshots.
//
// Merge trusts the delta's values as-is. The single derived field is Status:
// when the delta does not supply one, the post-merge integrity decides
// between playing and gameover. A session that has already reached gameover
// stays there.
func Merge(current GameState, delta *Delta) GameState {
	merged := current

	if delta == nil {
		merged.Status = deriveStatus(current.Status, nil, merged.Integrity)
		return merged
	}

	applyScalars(&merged, delta)

	// Append-only sequences: current followed by delta, order preserved,
	// duplicates kept (a repeated memory is a signal, not noise).
	merged.NPCMemories = appendSeq(current.NPCMemories, delta.NPCMemories)
	merged.Stash = appendSeq(current.Stash, delta.Stash)
	merged.DiscoveredCanon = appendSeq(current.DiscoveredCanon, delta.DiscoveredCanon)

	// Replace sequences: presence in the delta replaces the field wholesale.
	if delta.ActiveThreats != nil {
		merged.ActiveThreats = delta.ActiveThreats
	}
	if delta.Morphemes != nil {
		merged.Morphemes = delta.Morphemes
	}
	if delta.PaperbacksFound != nil {
		merged.PaperbacksFound = delta.PaperbacksFound
	}
	if delta.LegalHistory != nil {
		merged.LegalHistory = delta.LegalHistory
	}

	// Status derivation runs last so it sees the post-merge integrity.
	merged.Status = deriveStatus(current.Status, delta.Status, merged.Integrity)

	return merged
}

func applyScalars(gs *GameState, d *Delta) {
	setInt(&gs.Integrity, d.Integrity)
	setInt(&gs.MaxIntegrity, d.MaxIntegrity)
	setInt(&gs.Will, d.Will)
	setInt(&gs.MaxWill, d.MaxWill)
	setInt(&gs.Enlightenment, d.Enlightenment)
	setInt(&gs.Level, d.Level)
	setInt(&gs.Static, d.Static)
	setInt(&gs.ProbabilityAmplitude, d.ProbabilityAmplitude)
	setInt(&gs.WeirdnessSignature, d.WeirdnessSignature)
	setInt(&gs.ThreadCount, d.ThreadCount)
	setInt(&gs.ConceptionLevel, d.ConceptionLevel)
	setInt(&gs.Depth, d.Depth)

	if d.Identity != nil {
		gs.Identity = *d.Identity
	}
	if d.CurrentQuest != nil {
		gs.CurrentQuest = *d.CurrentQuest
	}
	if d.CurrentCharges != nil {
		gs.CurrentCharges = *d.CurrentCharges
	}
	if d.HasLens != nil {
		gs.HasLens = *d.HasLens
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func appendSeq[T any](current, delta []T) []T {
	if len(delta) == 0 {
		return current
	}
	merged := make([]T, 0, len(current)+len(delta))
	merged = append(merged, current...)
	merged = append(merged, delta...)
	return merged
}

func deriveStatus(prior Status, explicit *Status, integrity int) Status {
	if explicit != nil {
		return *explicit
	}
	if prior == StatusGameOver {
		return StatusGameOver
	}
	if integrity <= 0 {
		return StatusGameOver
	}
	return StatusPlaying
}
