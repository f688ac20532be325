package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/service"
	"golang.org/x/time/rate"
)

type clientFactory func(ctx context.Context, cfg Config) (Client, error)

// PlaybookGenerator requests playbooks from the configured provider. The
// provider client is opened per request and closed before returning, so a
// missing credential surfaces as a request error rather than at startup.
type PlaybookGenerator struct {
	newClient clientFactory
	limiter   *rate.Limiter
	logger    *slog.Logger
	cfg       Config
	retryOpts service.RetryOptions
}

// NewPlaybookGenerator creates a generator. The API key is read from the
// provider's environment variable when cfg.APIKey is empty.
func NewPlaybookGenerator(cfg Config, logger *slog.Logger) *PlaybookGenerator {
	return newPlaybookGenerator(cfg.ResolveAPIKey(), logger, NewClient)
}

func newPlaybookGenerator(cfg Config, logger *slog.Logger, factory clientFactory) *PlaybookGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries + 1, // retries follow the first call
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts < 1 {
		retryOpts.MaxAttempts = 1
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	perMinute := cfg.RateLimit
	if perMinute <= 0 {
		perMinute = 60
	}

	return &PlaybookGenerator{
		newClient: factory,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		logger:    logger,
		cfg:       cfg,
		retryOpts: retryOpts,
	}
}

// GeneratePlaybook returns the provider's reply to prompt. Every failure
// wraps common.ErrExternalService.
func (g *PlaybookGenerator) GeneratePlaybook(ctx context.Context, prompt string) (string, error) {
	client, err := g.newClient(ctx, g.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrExternalService, err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			g.logger.Debug("failed to close LLM client", "error", closeErr)
		}
	}()

	var playbook string
	err = common.WithRetry(ctx, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return common.Permanent(fmt.Errorf("rate limiter canceled: %w", err))
		}

		text, err := client.Generate(ctx, prompt)
		if err != nil {
			g.logger.Warn("playbook generation attempt failed",
				"provider", g.cfg.provider(),
				"error", err)
			if ctx.Err() != nil {
				return common.Permanent(err)
			}
			return err
		}
		if text == "" {
			return errors.New("empty playbook returned")
		}

		playbook = text
		return nil
	}, g.retryOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrExternalService, err)
	}

	g.logger.Debug("playbook generated", "provider", g.cfg.provider(), "length", len(playbook))
	return playbook, nil
}

// Describe names the provider in progress output.
func (g *PlaybookGenerator) Describe() string {
	switch g.cfg.provider() {
	case ProviderOpenAI:
		return "OpenAI's " + g.modelName() + " model"
	case ProviderAnthropic:
		return "Anthropic's " + g.modelName() + " model"
	default:
		return "Google's Gemini model"
	}
}

// CredentialHint is printed after a failed generation.
func (g *PlaybookGenerator) CredentialHint() string {
	return fmt.Sprintf("Please ensure your %s is set correctly.", APIKeyEnv(g.cfg.provider()))
}

func (g *PlaybookGenerator) modelName() string {
	if g.cfg.Model != "" {
		return g.cfg.Model
	}
	switch g.cfg.provider() {
	case ProviderOpenAI:
		return defaultOpenAIModel
	case ProviderAnthropic:
		return defaultAnthropicModel
	default:
		return defaultGeminiModel
	}
}
