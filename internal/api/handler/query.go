package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/notable/internal/api/response"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// Querier sends one prompt to several providers. Implemented by llm.Orchestrator.
type Querier interface {
	Available() []models.Provider
	QueryAll(ctx context.Context, prompt string, providers ...models.Provider) []models.LLMResponse
}

// NewQueryHandler returns an http.HandlerFunc for POST /api/v1/query.
// Without explicit providers every configured provider is asked.
func NewQueryHandler(q Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		var req struct {
			Prompt    string   `json:"prompt"`
			Providers []string `json:"providers"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		prompt := strings.TrimSpace(req.Prompt)
		if prompt == "" {
			invalid(w, "prompt is required")
			return
		}
		providers, ok := parseProviders(w, req.Providers)
		if !ok {
			return
		}
		if providers == nil {
			providers = q.Available()
		}
		if len(providers) == 0 {
			response.Error(w, http.StatusServiceUnavailable, "NO_PROVIDERS", "No LLM providers are configured", nil)
			return
		}

		response.JSON(w, q.QueryAll(r.Context(), prompt, providers...))
	}
}
