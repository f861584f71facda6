package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/internal/services"
	"github.com/threadware/collapse-engine/internal/services/events"
	"github.com/threadware/collapse-engine/internal/signals"
	"github.com/threadware/collapse-engine/internal/storage"
	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

type testHarness struct {
	sessions *SessionHandler
	lore     *LoreHandler
	health   *HealthHandler
	engine   *engine.Engine
	mock     *services.MockGenerationService
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	scheduler := signals.NewScheduler(logger)
	t.Cleanup(scheduler.Stop)

	mock := services.NewMockGenerationService()
	broadcaster := events.NewBroadcaster(logger)
	store := storage.NewMemoryStorage()
	eng := engine.NewEngine(store, mock, broadcaster, scheduler, time.Second, time.Second, logger)

	return &testHarness{
		sessions: NewSessionHandler(eng, broadcaster, nil, logger),
		lore:     NewLoreHandler(eng, logger),
		health:   NewHealthHandler(store, logger),
		engine:   eng,
		mock:     mock,
	}
}

func (h *testHarness) createSession(t *testing.T) uuid.UUID {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var snap engine.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	return snap.State.ID
}

func TestSessionHandler_Create(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var snap engine.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, state.StatusStart, snap.State.Status)
	assert.Equal(t, 100, snap.State.Integrity)
	assert.Equal(t, turn.DefaultChoices, snap.Choices)
}

func TestSessionHandler_CreateMethodNotAllowed(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSessionHandler_ReadAndDelete(t *testing.T) {
	h := newTestHarness(t)
	id := h.createSession(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id.String(), nil)
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+id.String(), nil)
	w = httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id.String(), nil)
	w = httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_InvalidID(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invalid session ID format", resp.Error)
}

func TestSessionHandler_Turn(t *testing.T) {
	h := newTestHarness(t)
	id := h.createSession(t)

	eighty := 80
	h.mock.GenerateTurnFunc = func(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error) {
		return &turn.GameResponse{
			Narration:   "The loom answers.",
			Choices:     []string{"Listen"},
			StateUpdate: &state.Delta{Integrity: &eighty},
		}, nil
	}

	body, _ := json.Marshal(map[string]string{"action": "address the loom"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result turn.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, "The loom answers.", result.Narration)
	assert.Equal(t, 80, result.State.Integrity)
	assert.Equal(t, []string{"Listen"}, result.Choices)
}

func TestSessionHandler_TurnEmptyAction(t *testing.T) {
	h := newTestHarness(t)
	id := h.createSession(t)

	body, _ := json.Marshal(map[string]string{"action": ""})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_TurnOnEndedSession(t *testing.T) {
	h := newTestHarness(t)
	id := h.createSession(t)

	zero := 0
	h.mock.GenerateTurnFunc = func(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error) {
		return &turn.GameResponse{
			Narration:   "The last thread snaps.",
			StateUpdate: &state.Delta{Integrity: &zero},
		}, nil
	}

	body, _ := json.Marshal(map[string]string{"action": "snap"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/turn", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/turn", bytes.NewReader(body))
	w = httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionHandler_Hint(t *testing.T) {
	h := newTestHarness(t)
	id := h.createSession(t)

	h.mock.GenerateHintFunc = func(ctx context.Context, gs *state.GameState) (string, error) {
		return "Unpick the hem first.", nil
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id.String()+"/hint", nil)
	w := httptest.NewRecorder()
	h.sessions.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp hintResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Unpick the hem first.", resp.Hint)
}

func TestLoreHandler(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/lore", nil)
	w := httptest.NewRecorder()
	h.lore.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp loreResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.WorldBible, 5)
	assert.Len(t, resp.SeedCanon, 4)
	assert.NotEmpty(t, resp.RitualRoots)
	assert.Empty(t, resp.DiscoveredCanon)
}

func TestLoreHandler_WithSessionCanon(t *testing.T) {
	h := newTestHarness(t)
	id := h.createSession(t)

	h.mock.GenerateTurnFunc = func(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error) {
		return &turn.GameResponse{
			Narration: "You steal an ending.",
			StateUpdate: &state.Delta{
				DiscoveredCanon: []state.CanonEntry{{Title: "Paths of Glory", Description: "The trenches loop.", WeakEnding: "THE SONG"}},
			},
		}, nil
	}
	_, err := h.engine.SubmitAction(context.Background(), id, "harvest")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/lore?session_id="+id.String(), nil)
	w := httptest.NewRecorder()
	h.lore.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp loreResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.DiscoveredCanon, 1)
	assert.Equal(t, "Paths of Glory", resp.DiscoveredCanon[0].Title)
}

func TestHealthHandler(t *testing.T) {
	h := newTestHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.health.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "collapse-engine", resp.Service)
}
