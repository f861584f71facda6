package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var voiceUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleVoice relays audio between the client websocket and the live
// generation endpoint. Errors close the relay; the game session itself is
// untouched.
// GET /v1/sessions/{id}/voice
func (h *SessionHandler) handleVoice(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if h.dialVoice == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Voice is not configured")
		return
	}

	clientConn, err := voiceUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Voice upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer func() {
		if err := clientConn.Close(); err != nil {
			h.logger.Debug("Failed to close client voice connection", "error", err)
		}
	}()

	voice, err := h.dialVoice(r.Context())
	if err != nil {
		h.logger.Error("Failed to open voice session", "session_id", sessionID, "error", err)
		_ = clientConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "voice unavailable"))
		return
	}
	defer func() {
		if err := voice.Close(); err != nil {
			h.logger.Debug("Failed to close voice session", "error", err)
		}
	}()

	h.logger.Info("Voice relay established", "session_id", sessionID)

	// Downstream: live endpoint -> client
	go func() {
		for {
			audio, err := voice.Receive()
			if err != nil {
				h.logger.Debug("Voice downstream ended", "session_id", sessionID, "error", err)
				_ = voice.Close()
				return
			}
			if len(audio) == 0 {
				continue
			}
			if err := clientConn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
				h.logger.Debug("Voice client write failed", "session_id", sessionID, "error", err)
				_ = voice.Close()
				return
			}
		}
	}()

	// Upstream: client -> live endpoint
	for {
		select {
		case <-voice.Done():
			return
		default:
		}

		msgType, frame, err := clientConn.ReadMessage()
		if err != nil {
			h.logger.Info("Voice client disconnected", "session_id", sessionID)
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := voice.SendAudio(frame); err != nil {
			h.logger.Warn("Voice upstream write failed", "session_id", sessionID, "error", err)
			return
		}
	}
}
