package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const (
	anthropicProvider     = "anthropic"
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
	defaultMaxTokens      = 2048
)

// AnthropicClient calls the Messages API through the official SDK.
type AnthropicClient struct {
	client       anthropic.Client
	model        string
	systemPrompt string
	maxTokens    int64
}

var _ ports.Completer = (*AnthropicClient)(nil)

// NewAnthropicClient builds an SDK client with retries disabled.
func NewAnthropicClient(cfg config.AIConfig) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicClient{
		client:       anthropic.NewClient(opts...),
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    maxTokens,
	}
}

// Complete concatenates the text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt, model string) (domain.Completion, error) {
	if model == "" {
		model = c.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system := strings.TrimSpace(c.systemPrompt); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return domain.Completion{}, transportErr(anthropicProvider, apiErr.StatusCode, err)
		}
		return domain.Completion{}, transportErr(anthropicProvider, 0, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return domain.Completion{}, transportErr(anthropicProvider, 0, errors.New("response has no text"))
	}
	return domain.Completion{Text: text.String()}, nil
}
