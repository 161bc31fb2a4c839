// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate produces chapter text and report outlines through an
// OpenAI-compatible chat completions API.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Backend abstracts the chat completion API so tests can supply a mock.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ArkBackend calls a Volcengine ARK (OpenAI-compatible) chat completions
// endpoint.
type ArkBackend struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Client    *http.Client
}

// NewArkBackend builds an ArkBackend from generation config.
func NewArkBackend(cfg types.GenerationConfig) *ArkBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &ArkBackend{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
		Client:    &http.Client{Timeout: timeout},
	}
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a single-turn user prompt and returns the trimmed
// completion text.
func (a *ArkBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("ARK API key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:     a.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: a.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(a.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
