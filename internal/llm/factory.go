package llm

import (
	"context"
	"fmt"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
)

// NewClient creates a client for the configured provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.provider() {
	case ProviderGemini:
		return newGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
}

func missingKey(provider string) error {
	return fmt.Errorf("%w: %s environment variable not set", common.ErrMissingConfig, APIKeyEnv(provider))
}
