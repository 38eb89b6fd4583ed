package llm

import "errors"

var (
	ErrNotConfigured       = errors.New("llm provider not configured")
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrInferenceTimeout    = errors.New("llm inference timeout")
	ErrInvalidResponse     = errors.New("llm provider returned invalid response")
)
