// Package openai adapts OpenAI-compatible chat completion APIs (OpenAI, xAI)
// to models.LLMProvider using go-openai.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kiranshivaraju/notable/internal/config"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens           = 1000
	xaiBaseURL                 = "https://api.x.ai/v1"
)

// Provider implements models.LLMProvider over the Chat Completions API.
type Provider struct {
	name   models.Provider
	model  string
	client *goopenai.Client
}

// NewProvider builds the ChatGPT adapter.
func NewProvider(cfg config.ProviderConfig, httpClient *http.Client) (*Provider, error) {
	return newProvider(models.ProviderChatGPT, cfg, "", goopenai.GPT4oMini, httpClient)
}

// NewGrokProvider builds the Grok adapter against xAI's OpenAI-compatible endpoint.
func NewGrokProvider(cfg config.ProviderConfig, httpClient *http.Client) (*Provider, error) {
	return newProvider(models.ProviderGrok, cfg, xaiBaseURL, "grok-2-latest", httpClient)
}

func newProvider(name models.Provider, cfg config.ProviderConfig, baseURL, model string, httpClient *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	if baseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Provider{
		name:   name,
		model:  model,
		client: goopenai.NewClientWithConfig(clientCfg),
	}, nil
}

func (p *Provider) Name() models.Provider { return p.name }

func (p *Provider) Model() string { return p.model }

// Complete runs one chat completion with the prompt as the only user message.
func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return models.Completion{}, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return models.Completion{}, fmt.Errorf("no choices in %s response", p.name)
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return models.Completion{
		Text:   strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:  model,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

var _ models.LLMProvider = (*Provider)(nil)
