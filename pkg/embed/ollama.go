package embed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaModel is the embedding model used when none is specified.
const DefaultOllamaModel = "nomic-embed-text"

// DefaultOllamaDimension is the vector size of the default model.
const DefaultOllamaDimension = 768

// OllamaConfig holds Ollama-specific embedding configuration.
type OllamaConfig struct {
	// Optional. Ollama server host (defaults to localhost:11434 or the
	// OLLAMA_HOST environment variable).
	Host string

	// Optional. Vector size of the chosen model. Defaults to the
	// nomic-embed-text dimension.
	Dimension int
}

// OllamaOption configures an Ollama embedding provider.
type OllamaOption interface {
	Apply(*OllamaConfig)
}

type ollamaConfigOption struct{ config *OllamaConfig }

func (o ollamaConfigOption) Apply(config *OllamaConfig) { *config = *o.config }

// WithOllamaConfig sets custom Ollama configuration.
func WithOllamaConfig(config *OllamaConfig) OllamaOption {
	return ollamaConfigOption{config: config}
}

// OllamaProvider generates embeddings with a local Ollama server.
type OllamaProvider struct {
	client    *api.Client
	model     string
	dimension int
}

// NewOllama creates an Ollama embedding provider.
//
// Example:
//
//	provider, err := embed.NewOllama("nomic-embed-text")
func NewOllama(model string, opts ...OllamaOption) (*OllamaProvider, error) {
	if model == "" {
		model = DefaultOllamaModel
	}

	config := &OllamaConfig{}
	for _, opt := range opts {
		opt.Apply(config)
	}
	if config.Dimension == 0 {
		config.Dimension = DefaultOllamaDimension
	}
	if config.Dimension < 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.Dimension)
	}

	var client *api.Client
	if config.Host == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("creating client from environment: %w", err)
		}
	} else {
		u, err := url.Parse(config.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid host URL: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &OllamaProvider{
		client:    client,
		model:     model,
		dimension: config.Dimension,
	}, nil
}

// Embed generates a vector for a single text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for multiple texts in a single request.
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := p.client.Embed(ctx, &api.EmbedRequest{
		Model: p.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request for model %s: %w: %w", p.model, ErrModelUnavailable, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Dimension reports the configured vector size.
func (p *OllamaProvider) Dimension() int {
	return p.dimension
}
