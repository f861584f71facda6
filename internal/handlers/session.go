package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/internal/services"
	"github.com/threadware/collapse-engine/internal/services/events"
)

// VoiceDialer opens a relay to the live voice endpoint. Nil disables the
// voice route.
type VoiceDialer func(ctx context.Context) (*services.VoiceSession, error)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionHandler handles the session surface.
// Routes:
// POST /v1/sessions                - Create session
// GET /v1/sessions/{id}            - Read session snapshot
// DELETE /v1/sessions/{id}         - Discard session
// POST /v1/sessions/{id}/turn      - Submit a turn
// POST /v1/sessions/{id}/hint      - Fetch an etymology hint
// GET /v1/sessions/{id}/events     - SSE event stream
// GET /v1/sessions/{id}/voice      - Websocket voice relay
type SessionHandler struct {
	engine      *engine.Engine
	broadcaster *events.Broadcaster
	dialVoice   VoiceDialer
	logger      *slog.Logger
}

func NewSessionHandler(eng *engine.Engine, broadcaster *events.Broadcaster, dialVoice VoiceDialer, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		engine:      eng,
		broadcaster: broadcaster,
		dialVoice:   dialVoice,
		logger:      logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, sessionID)
		case http.MethodDelete:
			h.handleDelete(w, r, sessionID)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) != 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	switch parts[1] {
	case "turn":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleTurn(w, r, sessionID)
	case "hint":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleHint(w, r, sessionID)
	case "events":
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.handleEvents(w, r, sessionID)
	case "voice":
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.handleVoice(w, r, sessionID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.CreateSession(r.Context())
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, snap)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	snap, err := h.engine.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Failed to read session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read session")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, snap)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message})
}
