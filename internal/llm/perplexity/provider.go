// Package perplexity adapts Perplexity's search-grounded chat completions to
// models.LLMProvider. It is the only adapter that returns citations.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/notable/internal/config"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	defaultBaseURL             = "https://api.perplexity.ai"
	defaultModel               = "sonar"
	defaultTemperature float32 = 0.7
	defaultMaxTokens           = 1000
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"search_results"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Provider implements models.LLMProvider for Perplexity.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewProvider(cfg config.ProviderConfig, httpClient *http.Client) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("perplexity API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Provider{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}, nil
}

func (p *Provider) Name() models.Provider { return models.ProviderPerplexity }

func (p *Provider) Model() string { return p.model }

// SearchCapable marks the provider as able to browse the live web.
func (p *Provider) SearchCapable() bool { return true }

// Complete sends one user turn and returns the answer with its citations.
func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return models.Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.Completion{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return models.Completion{}, fmt.Errorf("perplexity API error: execute request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return models.Completion{}, fmt.Errorf("perplexity API error: read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return models.Completion{}, fmt.Errorf("perplexity API error (%d): %s", httpResp.StatusCode, apiErr.Error.Message)
		}
		return models.Completion{}, fmt.Errorf("perplexity API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return models.Completion{}, fmt.Errorf("perplexity API error: unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Completion{}, fmt.Errorf("no choices in perplexity response")
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return models.Completion{
		Text:      strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:     model,
		Tokens:    resp.Usage.TotalTokens,
		Citations: citations(resp),
	}, nil
}

// citations prefers the top-level list and falls back to search result URLs.
func citations(resp chatResponse) []string {
	if len(resp.Citations) > 0 {
		return resp.Citations
	}
	var urls []string
	for _, r := range resp.SearchResults {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

var _ models.LLMProvider = (*Provider)(nil)
