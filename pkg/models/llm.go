package models

import "context"

// LLMProvider is the interface every vendor adapter implements.
// Never call vendor SDKs directly; inject this interface instead.
type LLMProvider interface {
	// Name returns the provider identifier.
	Name() Provider
	// Model returns the configured model identifier.
	Model() string
	// Complete sends the prompt as a single user turn.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CompletionRequest is one single-turn prompt. Zero values select the
// adapter's fixed defaults.
type CompletionRequest struct {
	Prompt      string
	Temperature *float32
	MaxTokens   int
}

// Completion is a successful vendor reply.
type Completion struct {
	Text      string
	Model     string
	Tokens    int
	Citations []string
}
