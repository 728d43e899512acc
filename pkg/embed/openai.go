package embed

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// DefaultOpenAIModel is the embedding model used when none is specified.
const DefaultOpenAIModel = "text-embedding-3-small"

// DefaultOpenAIDimension is the vector size of the default model.
const DefaultOpenAIDimension = 1536

// OpenAIConfig holds OpenAI-specific embedding configuration.
type OpenAIConfig struct {
	// Optional. API key (defaults to the OPENAI_API_KEY environment
	// variable).
	APIKey string

	// Optional. Custom base URL for OpenAI-compatible endpoints.
	BaseURL string

	// Optional. Vector size of the chosen model. Defaults to the
	// text-embedding-3-small dimension.
	Dimension int
}

// OpenAIOption configures an OpenAI embedding provider.
type OpenAIOption interface {
	Apply(*OpenAIConfig)
}

type openaiConfigOption struct{ config *OpenAIConfig }

func (o openaiConfigOption) Apply(config *OpenAIConfig) { *config = *o.config }

// WithOpenAIConfig sets custom OpenAI configuration.
func WithOpenAIConfig(config *OpenAIConfig) OpenAIOption {
	return openaiConfigOption{config: config}
}

// OpenAIProvider generates embeddings with the OpenAI API.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAI creates an OpenAI embedding provider. The API key is required,
// either in the config or via OPENAI_API_KEY.
//
// Example:
//
//	provider, err := embed.NewOpenAI("text-embedding-3-small")
func NewOpenAI(model string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if model == "" {
		model = DefaultOpenAIModel
	}

	config := &OpenAIConfig{}
	for _, opt := range opts {
		opt.Apply(config)
	}
	if config.Dimension == 0 {
		config.Dimension = DefaultOpenAIDimension
	}
	if config.Dimension < 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.Dimension)
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or provide APIKey in config)")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIProvider{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		dimension: config.Dimension,
	}, nil
}

// Embed generates a vector for a single text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for multiple texts in a single request.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding request for model %s: %w: %w", p.model, ErrModelUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vector := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vector[j] = float32(v)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Dimension reports the configured vector size.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}
