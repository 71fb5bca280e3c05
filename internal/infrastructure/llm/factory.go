package llm

import (
	"fmt"

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/ports"
)

// New returns the completer selected by cfg.Provider, rate limited when
// cfg.RequestsPerMinute is set.
func New(cfg config.AIConfig) (ports.Completer, error) {
	var completer ports.Completer
	switch cfg.Provider {
	case config.ProviderOpenAICompatible, "":
		completer = NewChatCompletionsClient(cfg)
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, misconfigured(openAIProvider, "api key is required")
		}
		completer = NewOpenAIClient(cfg)
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, misconfigured(anthropicProvider, "api key is required")
		}
		completer = NewAnthropicClient(cfg)
	case config.ProviderGateway:
		completer = NewGatewayClient(cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	return NewRateLimited(completer, cfg.RequestsPerMinute), nil
}
