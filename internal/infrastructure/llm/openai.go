package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const openAIProvider = "openai"

// OpenAIClient calls the chat completions API through the official SDK.
type OpenAIClient struct {
	client       openai.Client
	model        string
	systemPrompt string
	maxTokens    int
}

var _ ports.Completer = (*OpenAIClient)(nil)

// NewOpenAIClient builds an SDK client. Endpoint, when set, replaces the
// API base URL. SDK retries are disabled; failed items are requeued by hand.
func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
	}
}

// Complete sends prompt as the user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, prompt, model string) (domain.Completion, error) {
	if model == "" {
		model = c.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(c.systemPrompt); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return domain.Completion{}, transportErr(openAIProvider, apiErr.StatusCode, err)
		}
		return domain.Completion{}, transportErr(openAIProvider, 0, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, transportErr(openAIProvider, 0, errors.New("response has no choices"))
	}
	return domain.Completion{Text: resp.Choices[0].Message.Content}, nil
}
