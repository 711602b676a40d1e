package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsClassifier/internal/config"
	"NewsClassifier/internal/ports"
)

// OllamaClient implements ports.Completer against the Ollama generate API.
type OllamaClient struct {
	endpoint string
	model    string
	http     *http.Client
}

var _ ports.Completer = (*OllamaClient)(nil)

// NewOllamaClient creates a reusable HTTP client. Timeouts are applied per attempt
// through the request context.
func NewOllamaClient(cfg config.ModelConfig) *OllamaClient {
	return &OllamaClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		http:     &http.Client{},
	}
}

// Name identifies the provider in logs.
func (c *OllamaClient) Name() string {
	return "ollama"
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

// Complete performs a single non-streaming generate request.
func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	if decoded.Response == nil {
		return "", fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	return *decoded.Response, nil
}

// Verify calls the version endpoint next to the configured generate URL.
func (c *OllamaClient) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionURL(c.endpoint), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointUnreachable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: version check returned %s", ErrEndpointUnreachable, resp.Status)
	}
	return nil
}

func versionURL(endpoint string) string {
	if base, ok := strings.CutSuffix(strings.TrimRight(endpoint, "/"), "/generate"); ok {
		return base + "/version"
	}
	return endpoint
}
