package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/pkg/turn"
)

type turnRequest struct {
	Action string `json:"action"`
}

type hintResponse struct {
	Hint string `json:"hint"`
}

func (h *SessionHandler) handleTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var body turnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := turn.Request{SessionID: id, Action: body.Action}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.SubmitAction(r.Context(), id, body.Action)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrSessionNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
		case errors.Is(err, engine.ErrTurnInFlight):
			writeError(w, h.logger, http.StatusConflict, "A turn is already in flight")
		case errors.Is(err, engine.ErrSessionOver):
			writeError(w, h.logger, http.StatusConflict, "Session has ended")
		default:
			h.logger.Error("Turn failed", "session_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Turn failed")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *SessionHandler) handleHint(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	hint, err := h.engine.Hint(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Hint failed", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Hint failed")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, hintResponse{Hint: hint})
}
