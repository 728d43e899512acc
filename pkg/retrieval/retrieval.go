// Package retrieval ties an embedding provider to a vector index and turns
// search hits into prompt-ready context blocks.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/doctalk-ai/doctalk/pkg/embed"
	"github.com/doctalk-ai/doctalk/pkg/metrics"
	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// DefaultLimit is the number of results retrieved when none is configured.
const DefaultLimit = 5

// NoContextMessage is returned by FormatContext when nothing was retrieved.
const NoContextMessage = "No relevant context found."

// Config holds retriever configuration.
type Config struct {
	// Limit is the maximum number of results per search.
	Limit int

	// Optional structured logger.
	Logger zerolog.Logger

	// Optional metrics; nil records nothing.
	Metrics *metrics.Metrics
}

// Option configures a Retriever.
type Option interface {
	Apply(*Config)
}

type configOption struct{ config *Config }

func (o configOption) Apply(config *Config) { *config = *o.config }

// WithConfig sets custom retriever configuration.
func WithConfig(config *Config) Option {
	return configOption{config: config}
}

// Retriever finds the chunks most similar to a query.
type Retriever struct {
	provider embed.Provider
	index    vectorstore.Index
	limit    int
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New creates a retriever over the given provider and index.
//
// Example:
//
//	ret, err := retrieval.New(provider, idx)
//	results, err := ret.Search(ctx, "what is the refund policy?")
func New(provider embed.Provider, index vectorstore.Index, opts ...Option) (*Retriever, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if index == nil {
		return nil, fmt.Errorf("vector index is required")
	}

	config := &Config{}
	for _, opt := range opts {
		opt.Apply(config)
	}
	if config.Limit == 0 {
		config.Limit = DefaultLimit
	}
	if config.Limit < 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", config.Limit)
	}

	return &Retriever{
		provider: provider,
		index:    index,
		limit:    config.Limit,
		logger:   config.Logger,
		metrics:  config.Metrics,
	}, nil
}

// Search embeds the query and returns up to the configured number of results
// ranked by descending similarity. Results are passed through from the index
// untouched, so ranking and scoring stay backend-defined.
func (r *Retriever) Search(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	embedStart := time.Now()
	vector, err := r.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	r.metrics.ObserveEmbedding(time.Since(embedStart))

	searchStart := time.Now()
	results, err := r.index.Search(ctx, vector, r.limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	r.metrics.ObserveSearch(time.Since(searchStart))

	r.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("retrieval complete")
	return results, nil
}

// FormatContext renders search results as numbered context blocks for prompt
// assembly. Results with no source metadata are labeled "Unknown source".
func FormatContext(results []vectorstore.SearchResult) string {
	if len(results) == 0 {
		return NoContextMessage
	}

	blocks := make([]string, 0, len(results))
	for i, result := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "[Context %d]\n", i+1)
		b.WriteString("Source: ")
		b.WriteString(formatSource(result.Metadata))
		b.WriteString("\nContent: ")
		b.WriteString(result.Text)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// formatSource builds the one-line source description from chunk metadata.
func formatSource(meta vectorstore.Metadata) string {
	var parts []string
	if meta.Filename != "" {
		parts = append(parts, "File: "+meta.Filename)
	}
	if len(meta.PageNumbers) > 0 {
		pages := make([]string, len(meta.PageNumbers))
		for i, p := range meta.PageNumbers {
			pages[i] = strconv.Itoa(p)
		}
		parts = append(parts, "Pages: "+strings.Join(pages, ", "))
	}
	if meta.Title != "" {
		parts = append(parts, "Section: "+meta.Title)
	}
	if len(parts) == 0 {
		return "Unknown source"
	}
	return strings.Join(parts, " | ")
}
