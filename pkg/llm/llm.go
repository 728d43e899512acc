// Package llm defines the text generation contract shared by all language
// model providers.
//
// Providers live in subpackages (gemini, ollama, openai) and expose the same
// two operations: a blocking Generate and a token-by-token Stream. Callers
// pick a provider at wiring time and stay provider-agnostic afterwards.
package llm

import (
	"context"
	"iter"
)

// Default generation parameters applied when an Options field is zero.
const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
)

// Options are per-request generation parameters.
type Options struct {
	// MaxTokens caps the length of the generated response.
	MaxTokens int

	// Temperature controls randomness in token selection (0.0-2.0).
	Temperature float32
}

// Normalize fills zero fields with the package defaults.
func (o Options) Normalize() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	return o
}

// Client generates text from a prompt.
//
// Stream yields response fragments in order. Iteration stops early when the
// yield function returns false; a non-nil error ends the sequence.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Stream(ctx context.Context, prompt string, opts Options) iter.Seq2[string, error]
}
