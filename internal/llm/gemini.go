package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

const defaultGeminiModel = "gemini-1.5-flash"

// geminiClient implements Client for Google's Gemini API.
type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, missingKey(ProviderGemini)
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(name)
	gc := genai.GenerationConfig{}
	if cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = genai.Ptr(int32(cfg.MaxTokens))
	}
	model.GenerationConfig = gc

	return &geminiClient{client: client, model: model}, nil
}

// Generate sends the prompt as a single text part.
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(fmt.Errorf("gemini API error: %w", err))
	}
	return responseText(resp)
}

func (c *geminiClient) Close() error {
	return c.client.Close()
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in gemini response (finish reason %s)", resp.Candidates[0].FinishReason)
	}
	return b.String(), nil
}

// classifyGeminiError marks request errors that a retry cannot fix.
func classifyGeminiError(err error) error {
	var ae *apierror.APIError
	if !errors.As(err, &ae) {
		return err
	}

	if s := ae.GRPCStatus(); s != nil {
		switch s.Code() {
		case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.NotFound:
			return common.Permanent(err)
		case codes.ResourceExhausted:
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		}
	}
	return classifyStatus(ae.HTTPCode(), err)
}

// classifyStatus applies the retry policy for an HTTP status code.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case status >= 400 && status < 500:
		return common.Permanent(err)
	default:
		return err
	}
}
