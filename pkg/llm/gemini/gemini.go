// Package gemini provides an llm.Client backed by Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"os"

	"google.golang.org/genai"

	"github.com/doctalk-ai/doctalk/pkg/llm"
)

// DefaultModel is the Gemini model used when none is specified.
const DefaultModel = "gemini-2.0-flash"

// Config holds Gemini-specific configuration.
type Config struct {
	// Optional. API key (defaults to the GEMINI_API_KEY environment
	// variable).
	APIKey string
}

// Option configures a Gemini client.
type Option interface {
	Apply(*Config)
}

type configOption struct{ config *Config }

func (o configOption) Apply(config *Config) { *config = *o.config }

// WithConfig sets custom Gemini configuration.
func WithConfig(config *Config) Option {
	return configOption{config: config}
}

// Client generates text with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini client. The API key is required, either in the
// config or via GEMINI_API_KEY.
//
// Example:
//
//	client, err := gemini.New("gemini-2.0-flash")
func New(model string, opts ...Option) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	config := &Config{}
	for _, opt := range opts {
		opt.Apply(config)
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GEMINI_API_KEY or provide APIKey in config)")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Generate produces a complete response for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generateConfig(opts))
	if err != nil {
		return "", fmt.Errorf("gemini generate with model %s: %w", c.model, err)
	}
	return resp.Text(), nil
}

// Stream yields response fragments as the model produces them.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), generateConfig(opts)) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream with model %s: %w", c.model, err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func generateConfig(opts llm.Options) *genai.GenerateContentConfig {
	opts = opts.Normalize()
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
}
