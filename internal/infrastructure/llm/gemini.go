package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"MarketWire/internal/config"
	"MarketWire/internal/ports"
)

// GeminiClient implements ports.Completer via the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ ports.Completer = (*GeminiClient)(nil)

// NewGeminiClient builds a Gemini-backed completer from configuration.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Complete runs one generation with the stage instructions as the system
// instruction. JSON output is requested at the API level too, which keeps
// code-fence wrapping out of most responses.
func (c *GeminiClient) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: user}},
			Role:  "user",
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini call: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

// NewCompleter selects the configured provider implementation.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (ports.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
