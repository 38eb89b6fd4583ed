package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/notable/pkg/models"
)

// Orchestrator sends prompts to the configured vendor adapters.
type Orchestrator struct {
	providers map[models.Provider]models.LLMProvider
	timeout   time.Duration
}

// NewOrchestrator registers the adapters. A later adapter with the same name
// replaces an earlier one. timeout bounds every individual call.
func NewOrchestrator(timeout time.Duration, providers ...models.LLMProvider) *Orchestrator {
	o := &Orchestrator{
		providers: make(map[models.Provider]models.LLMProvider, len(providers)),
		timeout:   timeout,
	}
	for _, p := range providers {
		o.providers[p.Name()] = p
	}
	return o
}

// Provider returns the adapter registered for name.
func (o *Orchestrator) Provider(name models.Provider) (models.LLMProvider, bool) {
	p, ok := o.providers[name]
	return p, ok
}

// WebSearcher is implemented by adapters that can report whether they
// browse the live web while answering.
type WebSearcher interface {
	SearchCapable() bool
}

// SearchProvider returns the first adapter, in display order, that browses
// the live web.
func (o *Orchestrator) SearchProvider() (models.LLMProvider, bool) {
	for _, name := range models.AllProviders {
		p, ok := o.providers[name]
		if !ok {
			continue
		}
		if ws, ok := p.(WebSearcher); ok && ws.SearchCapable() {
			return p, true
		}
	}
	return nil, false
}

// Available lists the registered providers in display order.
func (o *Orchestrator) Available() []models.Provider {
	var out []models.Provider
	for _, name := range models.AllProviders {
		if _, ok := o.providers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Do performs one call. The returned response is always populated; err is
// the classified failure when the call did not succeed.
func (o *Orchestrator) Do(ctx context.Context, name models.Provider, req models.CompletionRequest) (models.LLMResponse, error) {
	p, ok := o.providers[name]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNotConfigured, name)
		return failed(name, "", 0, err), err
	}
	return Invoke(ctx, p, req, o.timeout)
}

// QueryAll sends prompt to every requested provider concurrently and waits for
// all of them. The result has one record per requested provider in request
// order. An empty providers list selects models.DefaultProviders.
func (o *Orchestrator) QueryAll(ctx context.Context, prompt string, providers ...models.Provider) []models.LLMResponse {
	if len(providers) == 0 {
		providers = models.DefaultProviders
	}

	results := make([]models.LLMResponse, len(providers))
	var g errgroup.Group

	for i, name := range providers {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in llm dispatch", "provider", name, "error", r)
					results[i] = failed(name, "", 0, fmt.Errorf("dispatch failed: %v", r))
				}
			}()
			results[i], _ = o.Do(ctx, name, models.CompletionRequest{Prompt: prompt})
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Invoke calls p under a per-call timeout and normalizes the outcome. It never
// panics on vendor failure; latency is measured on both paths.
func Invoke(ctx context.Context, p models.LLMProvider, req models.CompletionRequest, timeout time.Duration) (models.LLMResponse, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := p.Complete(callCtx, req)
	latency := time.Since(start).Milliseconds()

	if err == nil && strings.TrimSpace(completion.Text) == "" {
		err = ErrInvalidResponse
	}
	if err != nil {
		err = classify(callCtx, err)
		slog.Warn("llm call failed",
			"provider", p.Name(),
			"model", p.Model(),
			"latency_ms", latency,
			"error", err,
		)
		return failed(p.Name(), p.Model(), latency, err), err
	}

	model := completion.Model
	if model == "" {
		model = p.Model()
	}
	tokens := completion.Tokens
	if tokens < 0 {
		tokens = 0
	}

	return models.LLMResponse{
		Provider:  p.Name(),
		Model:     model,
		Response:  completion.Text,
		Tokens:    tokens,
		LatencyMs: latency,
		Citations: completion.Citations,
	}, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrInferenceTimeout),
		errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrNotConfigured):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}

func failed(name models.Provider, model string, latency int64, err error) models.LLMResponse {
	return models.LLMResponse{
		Provider:  name,
		Model:     model,
		LatencyMs: latency,
		Error:     err.Error(),
	}
}
