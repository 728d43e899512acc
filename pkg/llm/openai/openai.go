// Package openai provides an llm.Client backed by the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"iter"
	"os"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/doctalk-ai/doctalk/pkg/llm"
)

// DefaultModel is the OpenAI model used when none is specified.
const DefaultModel = "gpt-4o-mini"

// Config holds OpenAI-specific configuration.
type Config struct {
	// Optional. API key (defaults to the OPENAI_API_KEY environment
	// variable).
	APIKey string

	// Optional. Custom base URL for OpenAI-compatible endpoints.
	BaseURL string
}

// Option configures an OpenAI client.
type Option interface {
	Apply(*Config)
}

type configOption struct{ config *Config }

func (o configOption) Apply(config *Config) { *config = *o.config }

// WithConfig sets custom OpenAI configuration.
func WithConfig(config *Config) Option {
	return configOption{config: config}
}

// Client generates text with the OpenAI API.
type Client struct {
	client oai.Client
	model  string
}

// New creates an OpenAI client. The API key is required, either in the
// config or via OPENAI_API_KEY.
//
// Example:
//
//	client, err := openai.New("gpt-4o-mini")
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
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or provide APIKey in config)")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}

	return &Client{
		client: oai.NewClient(clientOpts...),
		model:  model,
	}, nil
}

// Generate produces a complete response for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(prompt, opts))
	if err != nil {
		return "", fmt.Errorf("openai chat with model %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat with model %s: empty response", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream yields response fragments as the model produces them.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := c.client.Chat.Completions.NewStreaming(ctx, c.buildParams(prompt, opts))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if !yield(delta, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("openai stream with model %s: %w", c.model, err))
		}
	}
}

func (c *Client) buildParams(prompt string, opts llm.Options) oai.ChatCompletionNewParams {
	opts = opts.Normalize()
	return oai.ChatCompletionNewParams{
		Model: oai.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(prompt),
		},
		Temperature:         oai.Float(float64(opts.Temperature)),
		MaxCompletionTokens: oai.Int(int64(opts.MaxTokens)),
	}
}
