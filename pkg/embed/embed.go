// Package embed turns text into dense vectors for similarity search.
//
// Two providers are included: Ollama for local models and OpenAI for hosted
// ones. Both satisfy the Provider interface, so indexes and retrievers never
// care which service produced a vector.
package embed

import (
	"context"
	"errors"
)

// ErrModelUnavailable reports that the backing embedding model could not be
// reached or failed to serve the request. Provider errors wrap it, so callers
// can test with errors.Is and retry or fail over.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Provider generates embedding vectors for text.
//
// Implementations must be safe for concurrent use and must return vectors of
// exactly Dimension() elements.
type Provider interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts in one call where the
	// backing service supports it. The result has one vector per input, in
	// input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the vector size this provider produces.
	Dimension() int
}
