package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const gatewayProvider = "gateway"

// GatewayClient talks to an in-house completion gateway. The gateway may
// answer with raw text, with an already structured object, or both.
type GatewayClient struct {
	endpoint     string
	apiKey       string
	systemPrompt string
	maxTokens    int
	http         *http.Client
}

var _ ports.Completer = (*GatewayClient)(nil)

// NewGatewayClient creates a reusable HTTP client.
func NewGatewayClient(cfg config.AIConfig) *GatewayClient {
	return &GatewayClient{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		http:         &http.Client{},
	}
}

type gatewayRequest struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	System    string `json:"system,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type gatewayResponse struct {
	Text    string         `json:"text"`
	Content map[string]any `json:"content"`
	Error   string         `json:"error"`
}

// Complete posts the prompt to {endpoint}/complete.
func (c *GatewayClient) Complete(ctx context.Context, prompt, model string) (domain.Completion, error) {
	if c.endpoint == "" {
		return domain.Completion{}, misconfigured(gatewayProvider, "endpoint is required")
	}

	var resp gatewayResponse
	err := c.post(ctx, "/complete", gatewayRequest{
		Prompt:    prompt,
		Model:     model,
		System:    c.systemPrompt,
		MaxTokens: c.maxTokens,
	}, &resp)
	if err != nil {
		return domain.Completion{}, err
	}
	if resp.Error != "" {
		return domain.Completion{}, transportErr(gatewayProvider, http.StatusOK, errors.New(resp.Error))
	}
	return domain.Completion{Text: resp.Text, Structured: resp.Content}, nil
}

func (c *GatewayClient) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportErr(gatewayProvider, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(gatewayProvider, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return transportErr(gatewayProvider, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
