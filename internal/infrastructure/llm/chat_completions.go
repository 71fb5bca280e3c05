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

const chatCompletionsProvider = "openai-compatible"

// ChatCompletionsClient posts to any OpenAI-compatible chat completions
// endpoint with a bearer key.
type ChatCompletionsClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	maxTokens    int
	httpClient   *http.Client
}

var _ ports.Completer = (*ChatCompletionsClient)(nil)

// NewChatCompletionsClient builds a client from configuration. The caller
// bounds each call through its context.
func NewChatCompletionsClient(cfg config.AIConfig) *ChatCompletionsClient {
	return &ChatCompletionsClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		httpClient:   &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as the user message and returns the first choice.
func (c *ChatCompletionsClient) Complete(ctx context.Context, prompt, model string) (domain.Completion, error) {
	if model == "" {
		model = c.model
	}
	if c.apiKey == "" || c.endpoint == "" || model == "" {
		return domain.Completion{}, misconfigured(chatCompletionsProvider, "endpoint, model and api key are required")
	}

	messages := make([]chatMessage, 0, 2)
	if system := strings.TrimSpace(c.systemPrompt); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages, MaxTokens: c.maxTokens})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Completion{}, transportErr(chatCompletionsProvider, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Completion{}, statusError(chatCompletionsProvider, resp)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Completion{}, transportErr(chatCompletionsProvider, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return domain.Completion{}, transportErr(chatCompletionsProvider, resp.StatusCode, errors.New(decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 {
		return domain.Completion{}, transportErr(chatCompletionsProvider, resp.StatusCode, errors.New("response has no choices"))
	}
	return domain.Completion{Text: decoded.Choices[0].Message.Content}, nil
}
