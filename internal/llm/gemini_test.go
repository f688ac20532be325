package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/sbeck32/SEAS8414-Homework9-Detector/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClientMissingKey(t *testing.T) {
	_, err := newGeminiClient(context.Background(), Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY environment variable not set")
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		resp    *genai.GenerateContentResponse
		name    string
		want    string
		wantErr bool
	}{
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []genai.Part{genai.Text("## Contain\n"), genai.Text("1. Block.")}},
				}},
			},
			want: "## Contain\n1. Block.",
		},
		{
			name: "skips non-text parts",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("text")}},
				}},
			},
			want: "text",
		},
		{name: "nil response", wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name:    "candidate without content",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			wantErr: true,
		},
		{
			name: "no text",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{}, FinishReason: genai.FinishReasonMaxTokens}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClientProviders(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Provider: "cohere", APIKey: "k"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	for _, provider := range []string{"", ProviderGemini, "OpenAI", ProviderAnthropic} {
		_, err := NewClient(context.Background(), Config{Provider: provider})
		assert.ErrorIs(t, err, common.ErrMissingConfig, "provider %q", provider)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	assert.Equal(t, "google-key", Config{}.ResolveAPIKey().APIKey)
	assert.Equal(t, "openai-key", Config{Provider: "openai"}.ResolveAPIKey().APIKey)
	assert.Equal(t, "explicit", Config{APIKey: "explicit"}.ResolveAPIKey().APIKey)
}
