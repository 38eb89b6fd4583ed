package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kiranshivaraju/notable/internal/config"
	"github.com/kiranshivaraju/notable/internal/llm/anthropic"
	"github.com/kiranshivaraju/notable/internal/llm/gemini"
	"github.com/kiranshivaraju/notable/internal/llm/openai"
	"github.com/kiranshivaraju/notable/internal/llm/perplexity"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// NewProviders constructs an adapter for every provider that has credentials.
// Called once at startup; the adapters share one HTTP client.
func NewProviders(ctx context.Context, cfg config.LLMConfig) ([]models.LLMProvider, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	var providers []models.LLMProvider

	if cfg.OpenAI.Enabled() {
		p, err := openai.NewProvider(cfg.OpenAI, httpClient)
		if err != nil {
			return nil, fmt.Errorf("chatgpt provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.Anthropic.Enabled() {
		p, err := anthropic.NewProvider(cfg.Anthropic, httpClient)
		if err != nil {
			return nil, fmt.Errorf("claude provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.Gemini.Enabled() {
		p, err := gemini.NewProvider(ctx, cfg.Gemini, httpClient)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.Perplexity.Enabled() {
		p, err := perplexity.NewProvider(cfg.Perplexity, httpClient)
		if err != nil {
			return nil, fmt.Errorf("perplexity provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.XAI.Enabled() {
		p, err := openai.NewGrokProvider(cfg.XAI, httpClient)
		if err != nil {
			return nil, fmt.Errorf("grok provider: %w", err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no provider has an API key", ErrNotConfigured)
	}
	return providers, nil
}
