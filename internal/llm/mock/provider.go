package mock

import (
	"context"
	"time"

	"github.com/kiranshivaraju/notable/pkg/models"
)

// MockProvider satisfies models.LLMProvider for testing.
type MockProvider struct {
	Name_        models.Provider
	Model_       string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (models.Completion, error)
	// Search makes the mock report live web search.
	Search bool
}

func (m *MockProvider) Name() models.Provider { return m.Name_ }

func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) SearchCapable() bool { return m.Search }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return models.Completion{}, nil
}

// NewMockProvider returns a MockProvider that always answers with text.
func NewMockProvider(name models.Provider, text string) *MockProvider {
	return &MockProvider{
		Name_:  name,
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
			return models.Completion{Text: text, Model: "mock-v1", Tokens: 42}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(name models.Provider, err error) *MockProvider {
	return &MockProvider{
		Name_:  name,
		Model_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
			return models.Completion{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider(name models.Provider) *MockProvider {
	return &MockProvider{
		Name_:  name,
		Model_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (models.Completion, error) {
			<-ctx.Done()
			return models.Completion{}, ctx.Err()
		},
	}
}

// NewSlowProvider answers with text after delay unless the context ends first.
func NewSlowProvider(name models.Provider, text string, delay time.Duration) *MockProvider {
	return &MockProvider{
		Name_:  name,
		Model_: "mock-slow",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (models.Completion, error) {
			select {
			case <-time.After(delay):
				return models.Completion{Text: text, Model: "mock-slow", Tokens: 7}, nil
			case <-ctx.Done():
				return models.Completion{}, ctx.Err()
			}
		},
	}
}

// NewPanickingProvider panics on every call.
func NewPanickingProvider(name models.Provider) *MockProvider {
	return &MockProvider{
		Name_:  name,
		Model_: "mock-panic",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (models.Completion, error) {
			panic("mock provider exploded")
		},
	}
}

// Compile-time check that MockProvider implements LLMProvider.
var _ models.LLMProvider = (*MockProvider)(nil)
