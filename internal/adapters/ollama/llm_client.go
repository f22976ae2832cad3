package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// OllamaClient is an LLMClient implementation backed by a local Ollama
// server's /api/generate endpoint.
type OllamaClient struct {
	httpClient  *http.Client
	baseURL     string
	modelName   string
	temperature float32
	logger      *zap.Logger
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a new Ollama client. The timeout bounds the whole
// generate call; callers can shorten it further via context.
func NewOllamaClient(
	baseURL string,
	modelName string,
	temperature float32,
	timeout time.Duration,
	logger *zap.Logger,
) *OllamaClient {
	return &OllamaClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		modelName:   modelName,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate sends the prompt to Ollama and returns the raw response text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.modelName,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": c.temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama API returned status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	return genResp.Response, nil
}

// ModelID identifies the backing model for result metadata.
func (c *OllamaClient) ModelID() string {
	return c.modelName
}

// Ping checks connectivity to the Ollama server. Used at startup so a
// misconfigured backend is reported before the first request.
func (c *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to Ollama server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama server responded with status %d", resp.StatusCode)
	}

	c.logger.Debug("Connected to Ollama server", zap.String("url", c.baseURL))
	return nil
}
