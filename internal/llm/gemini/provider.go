// Package gemini adapts Google's Gemini API to models.LLMProvider using the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kiranshivaraju/notable/internal/config"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	defaultModel               = "gemini-2.0-flash"
	defaultTemperature float32 = 0.7
	defaultMaxTokens           = 1000
)

// Provider implements models.LLMProvider for Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates the SDK client once; it is reused for every call.
func NewProvider(ctx context.Context, cfg config.ProviderConfig, httpClient *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Provider{client: client, model: model}, nil
}

func (p *Provider) Name() models.Provider { return models.ProviderGemini }

func (p *Provider) Model() string { return p.model }

// Complete generates content for a single user turn. Token counts come from
// usage metadata and are zero when the API omits it.
func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := p.client.Models.GenerateContent(ctx,
		p.model,
		genai.Text(req.Prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			MaxOutputTokens: int32(maxTokens),
		},
	)
	if err != nil {
		return models.Completion{}, fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return models.Completion{}, fmt.Errorf("no text in gemini response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	model := p.model
	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}

	return models.Completion{
		Text:   text,
		Model:  model,
		Tokens: tokens,
	}, nil
}

var _ models.LLMProvider = (*Provider)(nil)
