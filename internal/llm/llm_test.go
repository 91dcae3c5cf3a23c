package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/kiranshivaraju/nichescout/internal/config"
)

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want Endpoint
	}{
		{
			name: "openai uses default base url",
			cfg:  config.LLMConfig{Provider: "openai", OpenAIAPIKey: "sk-1"},
			want: Endpoint{APIKey: "sk-1"},
		},
		{
			name: "openrouter default base url",
			cfg:  config.LLMConfig{Provider: "openrouter", OpenRouterAPIKey: "sk-or"},
			want: Endpoint{BaseURL: "https://openrouter.ai/api/v1", APIKey: "sk-or"},
		},
		{
			name: "openrouter custom base url",
			cfg:  config.LLMConfig{Provider: "openrouter", OpenRouterAPIKey: "sk-or", BaseURL: "http://proxy/v1"},
			want: Endpoint{BaseURL: "http://proxy/v1", APIKey: "sk-or"},
		},
		{
			name: "ollama placeholder key",
			cfg:  config.LLMConfig{Provider: "ollama"},
			want: Endpoint{BaseURL: "http://localhost:11434/v1", APIKey: "ollama"},
		},
		{
			name: "vllm",
			cfg:  config.LLMConfig{Provider: "vllm", BaseURL: "http://vllm:8000/v1"},
			want: Endpoint{BaseURL: "http://vllm:8000/v1", APIKey: "vllm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEndpoint(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEndpoint_MissingKey(t *testing.T) {
	_, err := ResolveEndpoint(config.LLMConfig{Provider: "openai"})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = ResolveEndpoint(config.LLMConfig{Provider: "openrouter"})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestNewChatModel_UnsupportedProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.LLMConfig{Provider: "anthropic"})
	require.Error(t, err)

	var unsupported ErrUnsupportedProvider
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "anthropic", unsupported.Provider)
	assert.Equal(t, "unsupported LLM provider: anthropic", err.Error())
}

func TestNewChatModel_Ollama(t *testing.T) {
	cm, err := NewChatModel(context.Background(), config.LLMConfig{Provider: "ollama", Model: "qwen2.5", Timeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, cm)

	em, err := NewExtractionModel(context.Background(), config.LLMConfig{Provider: "ollama", Model: "qwen2.5"})
	require.NoError(t, err)
	assert.NotNil(t, em)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-5))

	l := NewLimiter(60)
	require.NotNil(t, l)
	assert.Equal(t, rate.Every(time.Second), l.Limit())
	assert.Equal(t, 1, l.Burst())
}
