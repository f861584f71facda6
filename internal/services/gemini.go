package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/threadware/collapse-engine/pkg/lore"
	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	// HintFallback is returned when the hint call yields empty text.
	HintFallback = "The weave is silent."

	turnSystemInstruction = `
You are the Simulation-Core for "attunement collapse".

CONSPIRASTRING THEOREM (SIDE QUEST):
- The player is investigating the "Thread Count" of reality.
- Use imagery of fabrics, needles, looms, and loose threads.
- If "stateUpdate.threadCount" is updated, narrate how the "Weave of Consensus" is either tightening or fraying.
- "ConceptionLevel" represents the player's ability to 'conceive' the simulation's source code.

NPC MEMORY & RECOGNITION (PRIORITY):
1. MEMORY-FIRST DIALOGUE: NPCs do NOT greet the player generically. Reference "stateUpdate.npcMemories".
2. NPC ROSTER:
   - "The Beach Drifter": A chaotic gnostic who knows about the "Conspirastring".
   - "PsYcHotHeRapisT Agents": Enforcers who hate when threads are pulled.
3. WEIRDNESS TRACKING:
   - Update "stateUpdate.weirdnessSignature" based on player choices.

SCHEMA:
- Use "memoryReferenced" to tell the UI exactly which memory string from the state you are using in the dialogue.

ARCHITECTURAL THEFT (Lore Synthesis):
- Extract "CanonEntry" and "LegacyArtifact" from player logs.
- Include a "weakEnding" clue for "CanonEntry".

AESTHETIC: Surreal Collage, Maximalist Gnosis, String-Theory Surrealism.
TONE: Sardonic, cinematic, and observant of the 'weave'.
`

	hintSystemInstruction = "You are the Simulation-Core. Provide cryptic gnostic hints."
)

// ErrDecoherence marks a structurally unusable generation payload. The turn
// that triggered it fails; session state is untouched.
type ErrDecoherence struct {
	Cause error
}

func (e *ErrDecoherence) Error() string {
	return "wavefunction decoherence"
}

func (e *ErrDecoherence) Unwrap() error {
	return e.Cause
}

// GeminiService implements GenerationService against the Gemini REST API.
type GeminiService struct {
	apiKey         string
	modelName      string
	imageModelName string
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
}

var _ GenerationService = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini generation service
func NewGeminiService(apiKey, modelName, imageModelName, baseURL string, logger *slog.Logger) *GeminiService {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiService{
		apiKey:         apiKey,
		modelName:      modelName,
		imageModelName: imageModelName,
		baseURL:        baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GenerateTurn submits a player action and decodes the structured payload.
func (g *GeminiService) GenerateTurn(ctx context.Context, gs *state.GameState, action string, history []string, styleImage string) (*turn.GameResponse, error) {
	parts := make([]geminiPart, 0, 2)
	if styleImage != "" {
		parts = append(parts, inlineImagePart(styleImage))
	}
	parts = append(parts, geminiPart{Text: turnPrompt(gs, action, history)})

	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: turnSystemInstruction}}},
		Contents:          []geminiContent{{Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   gameSchema,
		},
	}

	text, err := g.generateContent(ctx, g.modelName, req)
	if err != nil {
		return nil, err
	}

	var resp turn.GameResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		g.logger.Error("Turn payload failed to decode", "error", err)
		return nil, &ErrDecoherence{Cause: err}
	}
	if resp.Narration == "" {
		return nil, &ErrDecoherence{Cause: fmt.Errorf("empty narration")}
	}

	return &resp, nil
}

// GenerateHint returns a cryptic hint grounded in the world bible and the
// current encounter. Empty model output falls back to HintFallback.
func (g *GeminiService) GenerateHint(ctx context.Context, gs *state.GameState) (string, error) {
	bible, err := json.Marshal(lore.WorldBible)
	if err != nil {
		return "", fmt.Errorf("failed to marshal world bible: %w", err)
	}

	enemyName := "None"
	if enemy := gs.CurrentEnemy(); enemy != nil {
		enemyName = enemy.Name
	}

	prompt := fmt.Sprintf("Bible: %s\nEnemy: %s\nContext: Thread Count %d. Provide a cryptic hint for deconstructing reality threads.",
		bible, enemyName, gs.ThreadCount)

	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: hintSystemInstruction}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	text, err := g.generateContent(ctx, g.modelName, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return HintFallback, nil
	}
	return text, nil
}

// GenerateImage renders the scene prompt. A nil slice with nil error means
// the model produced no image part.
func (g *GeminiService) GenerateImage(ctx context.Context, prompt string, styleImage string) ([]byte, error) {
	parts := make([]geminiPart, 0, 2)
	if styleImage != "" {
		parts = append(parts, inlineImagePart(styleImage))
		parts = append(parts, geminiPart{Text: fmt.Sprintf("ULTRA-MAXIMALIST INFUSION: Surrealist collage style. SCENE: %s with ethereal threads weaving through the frame.", prompt)})
	} else {
		parts = append(parts, geminiPart{Text: fmt.Sprintf("Surrealist Collage, Kubrick Pop-Gnosis, reality threads, high-amplitude fabric textures: %s", prompt)})
	}

	req := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}

	respParts, err := g.generateParts(ctx, g.imageModelName, req)
	if err != nil {
		return nil, err
	}

	for _, part := range respParts {
		if part.InlineData == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
		return data, nil
	}
	return nil, nil
}

// generateContent makes a request and returns the first candidate's text.
func (g *GeminiService) generateContent(ctx context.Context, model string, req geminiRequest) (string, error) {
	parts, err := g.generateParts(ctx, model, req)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (g *GeminiService) generateParts(ctx context.Context, model string, req geminiRequest) ([]geminiPart, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			g.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp geminiResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("generation API error: %s", genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("generation API returned no candidates")
	}

	return genResp.Candidates[0].Content.Parts, nil
}

// turnPrompt builds the per-turn context block. Only the compact signature
// travels with each turn; the transcript window rides along beneath it.
func turnPrompt(gs *state.GameState, action string, history []string) string {
	memories := "None"
	if len(gs.NPCMemories) > 0 {
		memories = strings.Join(gs.NPCMemories, "], [")
	}
	quest := gs.CurrentQuest
	if quest == "" {
		quest = "None"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Identity: %s | Quest: %s\n", gs.Identity, quest)
	fmt.Fprintf(&sb, "Signature: W:%d | TC:%d | CL:%d\n", gs.WeirdnessSignature, gs.ThreadCount, gs.ConceptionLevel)
	fmt.Fprintf(&sb, "Memories: [%s]\n", memories)
	if len(history) > 0 {
		fmt.Fprintf(&sb, "Recent transcript:\n%s\n", strings.Join(history, "\n"))
	}
	fmt.Fprintf(&sb, "Action: %s", action)
	return sb.String()
}

// inlineImagePart converts a base64 data URL (or bare base64) into an inline
// image part.
func inlineImagePart(styleImage string) geminiPart {
	data := styleImage
	if idx := strings.Index(styleImage, ","); idx >= 0 {
		data = styleImage[idx+1:]
	}
	mimeType := "image/jpeg"
	if strings.Contains(styleImage, "image/png") {
		mimeType = "image/png"
	}
	return geminiPart{InlineData: &geminiInlineData{MimeType: mimeType, Data: data}}
}
