package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// HTTPTextGenerator is an HTTP implementation of the TextGenerator interface,
// speaking to an AI provider sidecar exposing a /generate endpoint.
type HTTPTextGenerator struct {
	url          string
	defaultModel string
}

// NewHTTPTextGenerator creates a new HTTPTextGenerator.
func NewHTTPTextGenerator(url, defaultModel string) *HTTPTextGenerator {
	return &HTTPTextGenerator{url: url, defaultModel: defaultModel}
}

// Generate returns the provider's completion for a prompt.
func (c *HTTPTextGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	requestBody, err := json.Marshal(map[string]any{
		"prompt":      prompt,
		"model":       model,
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text generation failed: status code %d", resp.StatusCode)
	}

	var generation Generation
	if err := json.NewDecoder(resp.Body).Decode(&generation); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if generation.Model == "" {
		generation.Model = model
	}

	return &generation, nil
}
