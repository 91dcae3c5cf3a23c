// Package llm builds tool-calling chat models for the configured provider.
// Every supported provider speaks the OpenAI chat completions protocol.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"golang.org/x/time/rate"

	"github.com/kiranshivaraju/nichescout/internal/config"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
)

// Endpoint is the resolved connection info for one provider.
type Endpoint struct {
	BaseURL string
	APIKey  string
}

// ResolveEndpoint picks the base URL and key for cfg.Provider.
func ResolveEndpoint(cfg config.LLMConfig) (Endpoint, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Endpoint{}, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingAPIKey)
		}
		return Endpoint{BaseURL: cfg.BaseURL, APIKey: cfg.OpenAIAPIKey}, nil
	case "openrouter":
		if cfg.OpenRouterAPIKey == "" {
			return Endpoint{}, fmt.Errorf("%w: OPENROUTER_API_KEY", ErrMissingAPIKey)
		}
		return Endpoint{BaseURL: defaultIfEmpty(cfg.BaseURL, openRouterBaseURL), APIKey: cfg.OpenRouterAPIKey}, nil
	case "ollama":
		// Ollama ignores the key but the client refuses to send an empty one.
		return Endpoint{BaseURL: defaultIfEmpty(cfg.BaseURL, ollamaBaseURL), APIKey: defaultIfEmpty(cfg.OpenAIAPIKey, "ollama")}, nil
	case "vllm":
		return Endpoint{BaseURL: cfg.BaseURL, APIKey: defaultIfEmpty(cfg.OpenAIAPIKey, "vllm")}, nil
	default:
		return Endpoint{}, ErrUnsupportedProvider{Provider: cfg.Provider}
	}
}

// NewChatModel returns the tool-calling model that drives the agent loop.
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	return newModel(ctx, cfg, cfg.Model, nil)
}

// NewExtractionModel returns the model used for JSON extraction passes.
// It runs at temperature 0.
func NewExtractionModel(ctx context.Context, cfg config.LLMConfig) (model.ToolCallingChatModel, error) {
	var zero float32
	return newModel(ctx, cfg, defaultIfEmpty(cfg.ChartModel, cfg.Model), &zero)
}

func newModel(ctx context.Context, cfg config.LLMConfig, modelName string, temperature *float32) (model.ToolCallingChatModel, error) {
	ep, err := ResolveEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      ep.APIKey,
		BaseURL:     ep.BaseURL,
		Model:       modelName,
		Timeout:     cfg.Timeout,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s chat model: %w", cfg.Provider, err)
	}
	return cm, nil
}

// NewLimiter paces model calls to rpm requests per minute. Returns nil
// (no pacing) when rpm is not positive.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

func defaultIfEmpty(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
