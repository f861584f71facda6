package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadware/collapse-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func candidateResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": text}},
				},
			},
		},
	}
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGeminiService("test-key", "test-model", "test-image-model", server.URL, testLogger())
}

func TestGeminiService_GenerateTurn(t *testing.T) {
	payload := `{"narration":"The loom shudders.","choices":["Run"],"stateUpdate":{"integrity":80},"imagePrompt":"a shuddering loom"}`

	var gotReq geminiRequest
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "test-model:generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse(payload)))
	})

	gs := state.NewGameState()
	gs.NPCMemories = []string{"saw the drifter"}

	resp, err := svc.GenerateTurn(context.Background(), gs, "pull the thread", []string{"prior line"}, "")
	require.NoError(t, err)
	assert.Equal(t, "The loom shudders.", resp.Narration)
	require.NotNil(t, resp.StateUpdate)
	require.NotNil(t, resp.StateUpdate.Integrity)
	assert.Equal(t, 80, *resp.StateUpdate.Integrity)

	// Structured output was requested
	require.NotNil(t, gotReq.GenerationConfig)
	assert.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMIMEType)
	assert.NotNil(t, gotReq.GenerationConfig.ResponseSchema)

	// The prompt carries the compact signature and memories
	prompt := gotReq.Contents[0].Parts[len(gotReq.Contents[0].Parts)-1].Text
	assert.Contains(t, prompt, "Identity: The Living Soul")
	assert.Contains(t, prompt, "W:15 | TC:120 | CL:1")
	assert.Contains(t, prompt, "saw the drifter")
	assert.Contains(t, prompt, "Action: pull the thread")
	assert.Contains(t, prompt, "prior line")
}

func TestGeminiService_GenerateTurn_DecodeFailure(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse("not json at all")))
	})

	_, err := svc.GenerateTurn(context.Background(), state.NewGameState(), "act", nil, "")
	require.Error(t, err)

	var decoherence *ErrDecoherence
	require.True(t, errors.As(err, &decoherence))
	assert.Equal(t, "wavefunction decoherence", err.Error())
}

func TestGeminiService_GenerateTurn_HTTPError(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := svc.GenerateTurn(context.Background(), state.NewGameState(), "act", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	var decoherence *ErrDecoherence
	assert.False(t, errors.As(err, &decoherence))
}

func TestGeminiService_GenerateTurn_StyleImagePart(t *testing.T) {
	payload := `{"narration":"ok","choices":[],"stateUpdate":{},"imagePrompt":"p"}`

	var gotReq geminiRequest
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse(payload)))
	})

	_, err := svc.GenerateTurn(context.Background(), state.NewGameState(), "act", nil, "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)

	require.Len(t, gotReq.Contents[0].Parts, 2)
	first := gotReq.Contents[0].Parts[0]
	require.NotNil(t, first.InlineData)
	assert.Equal(t, "image/png", first.InlineData.MimeType)
	assert.Equal(t, "aGVsbG8=", first.InlineData.Data)
}

func TestGeminiService_GenerateHint(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Contents[0].Parts[0].Text
		assert.Contains(t, prompt, "Enemy: The Seamstress")
		assert.Contains(t, prompt, "Thread Count 120")
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse("  Unravel the hem.  ")))
	})

	gs := state.NewGameState()
	gs.ActiveThreats = []state.Enemy{{Name: "The Seamstress", Type: state.ArchetypeWeaver}}

	hint, err := svc.GenerateHint(context.Background(), gs)
	require.NoError(t, err)
	assert.Equal(t, "Unravel the hem.", hint)
}

func TestGeminiService_GenerateHint_EmptyFallsBack(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse("")))
	})

	hint, err := svc.GenerateHint(context.Background(), state.NewGameState())
	require.NoError(t, err)
	assert.Equal(t, HintFallback, hint)
}

func TestGeminiService_GenerateImage(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47}
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "test-image-model:generateContent")
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, strings.HasPrefix(req.Contents[0].Parts[0].Text, "Surrealist Collage"))

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"inlineData": map[string]string{
								"mimeType": "image/png",
								"data":     base64.StdEncoding.EncodeToString(imageBytes),
							}},
						},
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	data, err := svc.GenerateImage(context.Background(), "a frayed billboard", "")
	require.NoError(t, err)
	assert.Equal(t, imageBytes, data)
}

func TestGeminiService_GenerateImage_NoImageIsNotAnError(t *testing.T) {
	svc := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(candidateResponse("no image today")))
	})

	data, err := svc.GenerateImage(context.Background(), "a frayed billboard", "")
	require.NoError(t, err)
	assert.Nil(t, data)
}
