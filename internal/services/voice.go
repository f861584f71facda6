package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// VoiceSession is a bidirectional audio relay to the live generation
// endpoint. PCM frames go out, synthesized audio comes back. Any transport
// error ends the session; voice is an overlay, so a dead session never
// fails the game session it belongs to.
type VoiceSession struct {
	conn   *websocket.Conn
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewVoiceSession dials the live endpoint and performs the model setup
// handshake.
func NewVoiceSession(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*VoiceSession, error) {
	header := http.Header{}
	header.Set("x-goog-api-key", apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, liveEndpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial live endpoint (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial live endpoint: %w", err)
	}

	setup := map[string]interface{}{
		"setup": map[string]interface{}{
			"model": "models/" + modelName,
			"generationConfig": map[string]interface{}{
				"responseModalities": []string{"AUDIO"},
			},
		},
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send setup message: %w", err)
	}

	return &VoiceSession{
		conn:   conn,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// SendAudio forwards one PCM frame upstream.
func (v *VoiceSession) SendAudio(frame []byte) error {
	msg := map[string]interface{}{
		"realtimeInput": map[string]interface{}{
			"audio": map[string]interface{}{
				"mimeType": "audio/pcm;rate=16000",
				"data":     frame,
			},
		},
	}
	if err := v.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send audio frame: %w", err)
	}
	return nil
}

// Receive blocks for the next downstream message and returns any audio
// payload in it. Non-audio messages return an empty slice.
func (v *VoiceSession) Receive() ([]byte, error) {
	_, data, err := v.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read live message: %w", err)
	}

	var msg struct {
		ServerContent struct {
			ModelTurn struct {
				Parts []struct {
					InlineData struct {
						Data []byte `json:"data"`
					} `json:"inlineData"`
				} `json:"parts"`
			} `json:"modelTurn"`
		} `json:"serverContent"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		v.logger.Debug("Unparsed live message", "error", err)
		return nil, nil
	}

	for _, part := range msg.ServerContent.ModelTurn.Parts {
		if len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, nil
}

// Done is closed when the session is closed.
func (v *VoiceSession) Done() <-chan struct{} {
	return v.done
}

// Close shuts the relay down. Safe to call more than once.
func (v *VoiceSession) Close() error {
	var err error
	v.closeOnce.Do(func() {
		close(v.done)
		_ = v.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = v.conn.Close()
	})
	return err
}
