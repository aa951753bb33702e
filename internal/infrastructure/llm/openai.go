package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"MarketWire/internal/config"
	"MarketWire/internal/ports"
)

// OpenAIClient implements ports.Completer backed by OpenAI-compatible chat
// completion APIs. Groq and self-hosted gateways expose the same shape, so
// the provider is selected purely by endpoint + model.
type OpenAIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Completer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.CallTimeout(),
		},
	}
}

// Complete posts one system+user exchange and returns the assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chat client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
