package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/pkg/lore"
	"github.com/threadware/collapse-engine/pkg/state"
)

// LoreHandler serves the static world bible plus, when a session is named,
// its discovered canon.
// GET /v1/lore
// GET /v1/lore?session_id={id}
type LoreHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

type loreResponse struct {
	WorldBible      []lore.Entry       `json:"world_bible"`
	SeedCanon       []state.CanonEntry `json:"seed_canon"`
	DiscoveredCanon []state.CanonEntry `json:"discovered_canon,omitempty"`
	RitualPrefixes  []string           `json:"ritual_prefixes"`
	RitualSymbols   []string           `json:"ritual_symbols"`
	RitualRoots     []string           `json:"ritual_roots"`
}

func NewLoreHandler(eng *engine.Engine, logger *slog.Logger) *LoreHandler {
	return &LoreHandler{engine: eng, logger: logger}
}

func (h *LoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	resp := loreResponse{
		WorldBible:     lore.WorldBible,
		SeedCanon:      lore.SeedCanon,
		RitualPrefixes: lore.RitualComponents.Prefixes,
		RitualSymbols:  lore.RitualComponents.Symbols,
		RitualRoots:    lore.RitualComponents.Roots,
	}

	if idStr := r.URL.Query().Get("session_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
			return
		}
		snap, err := h.engine.GetSession(r.Context(), id)
		if err != nil {
			if errors.Is(err, engine.ErrSessionNotFound) {
				writeError(w, h.logger, http.StatusNotFound, "Session not found")
				return
			}
			h.logger.Error("Failed to read session for lore", "session_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to read session")
			return
		}
		resp.DiscoveredCanon = snap.State.DiscoveredCanon
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}
