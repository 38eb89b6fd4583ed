// Package models contains shared data models used across the Notable codebase.
package models

import (
	"fmt"
	"strings"
)

// Provider identifies one LLM vendor queried for agent recommendations.
type Provider string

const (
	ProviderChatGPT    Provider = "chatgpt"
	ProviderClaude     Provider = "claude"
	ProviderGemini     Provider = "gemini"
	ProviderPerplexity Provider = "perplexity"
	ProviderGrok       Provider = "grok"
)

// AllProviders lists every supported provider in display order.
var AllProviders = []Provider{
	ProviderChatGPT,
	ProviderClaude,
	ProviderGemini,
	ProviderPerplexity,
	ProviderGrok,
}

// DefaultProviders is the set queried when a caller does not name providers.
var DefaultProviders = []Provider{
	ProviderChatGPT,
	ProviderClaude,
	ProviderGemini,
	ProviderPerplexity,
}

// ParseProvider accepts a provider identifier case-insensitively.
// Vendor aliases ("openai", "anthropic", "xai") map to the product name.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chatgpt", "openai":
		return ProviderChatGPT, nil
	case "claude", "anthropic":
		return ProviderClaude, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "perplexity":
		return ProviderPerplexity, nil
	case "grok", "xai":
		return ProviderGrok, nil
	default:
		return "", fmt.Errorf("unknown provider %q: must be one of chatgpt, claude, gemini, perplexity, grok", s)
	}
}

// ParseProviders parses a list of identifiers, dropping duplicates while keeping order.
func ParseProviders(names []string) ([]Provider, error) {
	seen := make(map[Provider]bool, len(names))
	out := make([]Provider, 0, len(names))
	for _, n := range names {
		p, err := ParseProvider(n)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// LLMResponse is the normalized outcome of one model invocation.
// When Error is set, Response is empty and Tokens is zero.
type LLMResponse struct {
	Provider  Provider `json:"provider"`
	Model     string   `json:"model"`
	Response  string   `json:"response"`
	Tokens    int      `json:"tokens"`
	LatencyMs int64    `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
	Citations []string `json:"citations,omitempty"`
}

// Failed reports whether the invocation ended in an error.
func (r LLMResponse) Failed() bool {
	return r.Error != ""
}
