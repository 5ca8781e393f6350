package models

import (
	"context"
	"time"
)

// GenerationConfig carries per-call settings for a text generation request.
type GenerationConfig struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// TextGenerator is the narrow interface to an external language model.
// Never call a specific provider directly — always inject this interface.
// Errors are transient from the caller's point of view: the insight
// generator retries them and degrades on exhaustion.
type TextGenerator interface {
	// Generate sends a prompt and returns the raw completion text.
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	// Name returns the provider identifier (e.g. "ollama", "anthropic").
	Name() string
}
