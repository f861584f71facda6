package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/pkg/turn"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func decodeOrError(body []byte, statusCode, wantStatus int, v interface{}) error {
	if statusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return fmt.Errorf("API returned status %d: %s", statusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func createSession(client *http.Client, baseURL string) (*engine.Snapshot, error) {
	resp, err := client.Post(baseURL+"/v1/sessions", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var snap engine.Snapshot
	if err := decodeOrError(body, resp.StatusCode, http.StatusCreated, &snap); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &snap, nil
}

func getSession(client *http.Client, baseURL string, id uuid.UUID) (*engine.Snapshot, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var snap engine.Snapshot
	if err := decodeOrError(body, resp.StatusCode, http.StatusOK, &snap); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &snap, nil
}

func submitTurn(client *http.Client, baseURL string, id uuid.UUID, action string) (*turn.Result, error) {
	jsonData, err := json.Marshal(map[string]string{"action": action})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/sessions/%s/turn", baseURL, id),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result turn.Result
	if err := decodeOrError(body, resp.StatusCode, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("turn failed: %w", err)
	}
	return &result, nil
}

func fetchHint(client *http.Client, baseURL string, id uuid.UUID) (string, error) {
	resp, err := client.Post(fmt.Sprintf("%s/v1/sessions/%s/hint", baseURL, id), "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var hint struct {
		Hint string `json:"hint"`
	}
	if err := decodeOrError(body, resp.StatusCode, http.StatusOK, &hint); err != nil {
		return "", fmt.Errorf("hint failed: %w", err)
	}
	return hint.Hint, nil
}
