package engine

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/internal/signals"
	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

const (
	// CollapsePreamble prefixes the transcript entry written when a turn
	// fails. The session stays playable.
	CollapsePreamble = "THREAD COLLAPSE: "

	// HintFailureFallback is shown when the hint call itself fails.
	HintFailureFallback = "The tapestry is too complex..."

	imageTaskTimeout = 90 * time.Second
)

// SubmitAction runs one orchestrated turn. Generation failure is not an
// error to the caller: it becomes a transcript entry and the state is left
// unmerged. Errors are reserved for the gate conditions (unknown session,
// turn in flight, ended session).
func (e *Engine) SubmitAction(ctx context.Context, id uuid.UUID, action string) (*turn.Result, error) {
	sess, err := e.resident(ctx, id)
	if err != nil {
		return nil, err
	}

	// Gate and echo under the lock; the generation call runs outside it.
	sess.mu.Lock()
	if sess.gs.Status == state.StatusGameOver {
		sess.mu.Unlock()
		return nil, ErrSessionOver
	}
	if sess.inFlight {
		sess.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	sess.inFlight = true

	// The generation prompt sees the transcript as it stood before this
	// action; the echo is presentation, not context.
	history := sess.gs.TrailingHistory()

	if !turn.IsSystemAction(action) {
		sess.gs.History = append(sess.gs.History, state.HistoryEntry{
			Role:      state.RoleUser,
			Text:      action,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	snapshot := sess.gs
	styleImage := dataURL(sess.image)
	sess.mu.Unlock()

	resp, genErr := e.gen.GenerateTurn(ctx, &snapshot, action, history, styleImage)
	if genErr == nil {
		if err := resp.StateUpdate.Validate(); err != nil {
			e.logger.Warn("Rejected turn delta", "session_id", id, "error", err)
			genErr = err
		}
	}

	if genErr != nil {
		return e.failTurn(ctx, sess, genErr)
	}

	return e.completeTurn(ctx, sess, resp)
}

// failTurn records the failure in the transcript and releases the gate. The
// optimistic echo stays; the state is not merged.
func (e *Engine) failTurn(ctx context.Context, sess *session, genErr error) (*turn.Result, error) {
	e.logger.Error("Turn failed", "session_id", sess.gs.ID, "error", genErr)

	sess.mu.Lock()
	sess.gs.History = append(sess.gs.History, state.HistoryEntry{
		Role:      state.RoleAI,
		Text:      CollapsePreamble + genErr.Error(),
		Timestamp: time.Now().UnixMilli(),
	})
	sess.inFlight = false
	result := &turn.Result{
		SessionID: sess.gs.ID,
		Narration: CollapsePreamble + genErr.Error(),
		Choices:   append([]string(nil), sess.choices...),
		State:     sess.gs,
	}
	sess.mu.Unlock()

	if err := e.persist(ctx, sess); err != nil {
		e.logger.Error("Failed to persist after turn failure", "session_id", result.SessionID, "error", err)
	}

	return result, nil
}

func (e *Engine) completeTurn(ctx context.Context, sess *session, resp *turn.GameResponse) (*turn.Result, error) {
	now := time.Now().UnixMilli()

	sess.mu.Lock()
	sess.gs = state.Merge(sess.gs, resp.StateUpdate)
	sess.gs.Turn++
	sess.gs.History = append(sess.gs.History, state.HistoryEntry{
		Role:      state.RoleAI,
		Text:      resp.Narration,
		Timestamp: now,
	})

	choices := resp.Choices
	if len(choices) == 0 {
		choices = turn.DefaultChoices
	}
	sess.choices = append([]string(nil), choices...)

	if resp.MemoryReferenced != "" {
		sess.memorySignal = resp.MemoryReferenced
	}
	if resp.HarvestResults != nil {
		sess.harvestSignal = resp.HarvestResults
	}

	sess.inFlight = false

	id := sess.gs.ID
	mergedTurn := sess.gs.Turn
	status := sess.gs.Status
	styleImage := dataURL(sess.image)
	result := &turn.Result{
		SessionID:        id,
		Narration:        resp.Narration,
		Choices:          append([]string(nil), sess.choices...),
		State:            sess.gs,
		MemoryReferenced: resp.MemoryReferenced,
		HarvestResults:   resp.HarvestResults,
	}
	sess.mu.Unlock()

	if err := e.persist(ctx, sess); err != nil {
		e.logger.Error("Failed to persist merged session", "session_id", id, "error", err)
	}

	e.broadcaster.PublishStateUpdated(id, mergedTurn, string(status))

	if resp.MemoryReferenced != "" {
		e.activateMemorySignal(sess, id, resp.MemoryReferenced)
	}
	if resp.HarvestResults != nil {
		e.activateHarvestSignal(sess, id, resp.HarvestResults)
	}

	if resp.ImagePrompt != "" {
		go e.imageTask(sess, id, mergedTurn, resp.ImagePrompt, styleImage)
	}

	return result, nil
}

func (e *Engine) activateMemorySignal(sess *session, id uuid.UUID, memory string) {
	e.broadcaster.PublishSignalMemory(id, memory)
	e.scheduler.Activate(id, signals.KeyMemory, e.memoryDuration, func() {
		sess.mu.Lock()
		sess.memorySignal = ""
		sess.mu.Unlock()
		e.broadcaster.PublishSignalMemory(id, "")
	})
}

func (e *Engine) activateHarvestSignal(sess *session, id uuid.UUID, results *state.HarvestResults) {
	e.broadcaster.PublishSignalHarvest(id, results)
	e.scheduler.Activate(id, signals.KeyHarvest, e.harvestDuration, func() {
		sess.mu.Lock()
		sess.harvestSignal = nil
		sess.mu.Unlock()
		e.broadcaster.PublishSignalHarvest(id, nil)
	})
}

// imageTask renders the scene image for one turn. It is fire and forget:
// failures are logged, and a result arriving after a newer turn has merged
// is discarded.
func (e *Engine) imageTask(sess *session, id uuid.UUID, turnAtRequest int, prompt, styleImage string) {
	ctx, cancel := context.WithTimeout(context.Background(), imageTaskTimeout)
	defer cancel()

	image, err := e.gen.GenerateImage(ctx, prompt, styleImage)
	if err != nil {
		e.logger.Warn("Image generation failed", "session_id", id, "turn", turnAtRequest, "error", err)
		return
	}
	if image == nil {
		return
	}

	sess.mu.Lock()
	if sess.gs.Turn != turnAtRequest {
		sess.mu.Unlock()
		e.logger.Debug("Dropping stale image", "session_id", id, "image_turn", turnAtRequest)
		return
	}
	sess.image = image
	sess.imageTurn = turnAtRequest
	sess.mu.Unlock()

	e.broadcaster.PublishImageReady(id, turnAtRequest, image)
}

// Hint fetches an etymology hint. Hint failure is cosmetic, so the fallback
// string is returned instead of an error.
func (e *Engine) Hint(ctx context.Context, id uuid.UUID) (string, error) {
	sess, err := e.resident(ctx, id)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	snapshot := sess.gs
	sess.mu.Unlock()

	hint, err := e.gen.GenerateHint(ctx, &snapshot)
	if err != nil {
		e.logger.Warn("Hint generation failed", "session_id", id, "error", err)
		return HintFailureFallback, nil
	}
	return hint, nil
}

func (e *Engine) persist(ctx context.Context, sess *session) error {
	sess.mu.Lock()
	gs := sess.gs
	sess.mu.Unlock()
	return e.store.SaveSession(ctx, gs.ID, &gs)
}

func dataURL(image []byte) string {
	if len(image) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
}
