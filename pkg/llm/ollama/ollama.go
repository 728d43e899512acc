// Package ollama provides an llm.Client backed by a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/doctalk-ai/doctalk/pkg/llm"
)

// DefaultModel is the Ollama model used when none is specified.
const DefaultModel = "llama3.2"

// Config holds Ollama-specific configuration.
type Config struct {
	// Optional. Ollama server host (defaults to localhost:11434 or the
	// OLLAMA_HOST environment variable).
	Host string

	// Optional. Controls how long the model stays loaded in memory,
	// for example "5m" or "1h".
	KeepAlive string
}

// Option configures an Ollama client.
type Option interface {
	Apply(*Config)
}

type configOption struct{ config *Config }

func (o configOption) Apply(config *Config) { *config = *o.config }

// WithConfig sets custom Ollama configuration.
func WithConfig(config *Config) Option {
	return configOption{config: config}
}

// Client generates text with a local Ollama server.
type Client struct {
	client    *api.Client
	model     string
	keepAlive string
}

// New creates an Ollama client.
//
// Example:
//
//	client, err := ollama.New("llama3.2")
func New(model string, opts ...Option) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}

	config := &Config{}
	for _, opt := range opts {
		opt.Apply(config)
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

	return &Client{
		client:    client,
		model:     model,
		keepAlive: config.KeepAlive,
	}, nil
}

// Generate produces a complete response for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	req := c.buildRequest(prompt, opts, false)

	var response strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat with model %s: %w", c.model, err)
	}
	return response.String(), nil
}

// Stream yields response fragments as the model produces them.
func (c *Client) Stream(ctx context.Context, prompt string, opts llm.Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := c.buildRequest(prompt, opts, true)

		stopped := fmt.Errorf("stream consumer stopped")
		err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			if !yield(resp.Message.Content, nil) {
				return stopped
			}
			return nil
		})
		if err != nil && err != stopped {
			yield("", fmt.Errorf("ollama chat with model %s: %w", c.model, err))
		}
	}
}

func (c *Client) buildRequest(prompt string, opts llm.Options, stream bool) *api.ChatRequest {
	opts = opts.Normalize()
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
	if c.keepAlive != "" {
		req.Options["keep_alive"] = c.keepAlive
	}
	return req
}
