package llm

import (
	"context"
	"os"
	"strings"
	"time"
)

// Client sends a free-text prompt to a provider and returns its reply.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Supported providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds provider selection and request settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // overrides the provider endpoint
	MaxRetries  int    // retries after the first request
	RetryDelay  time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}

func (c Config) provider() string {
	if c.Provider == "" {
		return ProviderGemini
	}
	return strings.ToLower(c.Provider)
}

// APIKeyEnv returns the environment variable holding the provider's key.
func APIKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

// ResolveAPIKey fills in APIKey from the environment when it is unset.
func (c Config) ResolveAPIKey() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(APIKeyEnv(c.provider()))
	}
	return c
}
