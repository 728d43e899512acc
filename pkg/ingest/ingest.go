// Package ingest turns source documents into indexed, searchable chunks.
//
// A Pipeline wires an extractor, the chunk splitter, an embedding provider,
// and a vector index. Documents that fail extraction are logged and skipped;
// embedding and indexing failures abort the batch, since silently losing
// chunks would corrupt retrieval quality.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/doctalk-ai/doctalk/pkg/chunk"
	"github.com/doctalk-ai/doctalk/pkg/embed"
	"github.com/doctalk-ai/doctalk/pkg/metrics"
	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// ExtractionError reports a document that could not be read or parsed.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor pulls plain text out of a source document. Page markers, when
// the format has pages, appear inline as "[Page N]" so the splitter can
// attribute chunks.
type Extractor interface {
	// Extract returns the document text, or an *ExtractionError when the
	// file cannot be read or its format is unsupported.
	Extract(ctx context.Context, path string) (string, error)
}

// TextExtractor reads plain-text documents (.txt and .md).
type TextExtractor struct{}

// Extract reads the file verbatim.
func (TextExtractor) Extract(_ context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(path))}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	return string(data), nil
}

// Result summarizes one ingestion run.
type Result struct {
	// DocumentsIndexed counts documents whose chunks were inserted.
	DocumentsIndexed int

	// DocumentsSkipped counts documents that failed extraction.
	DocumentsSkipped int

	// ChunksIndexed counts chunks inserted across all documents.
	ChunksIndexed int
}

// Config holds pipeline configuration.
type Config struct {
	// Optional. Extractor for reading documents. Defaults to TextExtractor.
	Extractor Extractor

	// Optional. Splitter for chunking text. Defaults to chunk.NewSplitter().
	Splitter *chunk.Splitter

	// Optional structured logger.
	Logger zerolog.Logger

	// Optional metrics; nil records nothing.
	Metrics *metrics.Metrics
}

// Option configures a Pipeline.
type Option interface {
	Apply(*Config)
}

type configOption struct{ config *Config }

func (o configOption) Apply(config *Config) { *config = *o.config }

// WithConfig sets custom pipeline configuration.
func WithConfig(config *Config) Option {
	return configOption{config: config}
}

// Pipeline ingests documents into a vector index.
type Pipeline struct {
	extractor Extractor
	splitter  *chunk.Splitter
	provider  embed.Provider
	index     vectorstore.Index
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// New creates an ingestion pipeline.
//
// Example:
//
//	pipe, err := ingest.New(provider, idx)
//	result, err := pipe.Ingest(ctx, []string{"notes.md", "guide.txt"})
func New(provider embed.Provider, index vectorstore.Index, opts ...Option) (*Pipeline, error) {
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
	if config.Extractor == nil {
		config.Extractor = TextExtractor{}
	}
	if config.Splitter == nil {
		config.Splitter = chunk.NewSplitter()
	}

	return &Pipeline{
		extractor: config.Extractor,
		splitter:  config.Splitter,
		provider:  provider,
		index:     index,
		logger:    config.Logger,
		metrics:   config.Metrics,
	}, nil
}

// Ingest processes the given document paths. Extraction failures skip the
// document and continue; embedding or indexing failures abort and propagate.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (Result, error) {
	var result Result
	for _, path := range paths {
		indexed, err := p.ingestOne(ctx, path)
		if err != nil {
			var extractErr *ExtractionError
			if errors.As(err, &extractErr) {
				p.logger.Warn().Err(err).Str("path", path).Msg("skipping document")
				result.DocumentsSkipped++
				continue
			}
			return result, err
		}
		result.DocumentsIndexed++
		result.ChunksIndexed += indexed
		p.metrics.AddDocuments(1)
		p.metrics.AddChunks(indexed)
	}

	p.logger.Info().
		Int("indexed", result.DocumentsIndexed).
		Int("skipped", result.DocumentsSkipped).
		Int("chunks", result.ChunksIndexed).
		Msg("ingestion complete")
	return result, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, path string) (int, error) {
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return 0, err
	}

	filename := filepath.Base(path)
	documentID := uuid.NewString()
	chunks := p.splitter.Split(text, filename, path, documentID)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", filename, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", filename, len(vectors), len(chunks))
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			Text:   c.Text,
			Vector: vectors[i],
			Metadata: vectorstore.Metadata{
				Filename:    c.Filename,
				PageNumbers: c.PageNumbers,
				Title:       c.Title,
				Source:      c.Source,
				DocumentID:  c.DocumentID,
			},
		}
	}
	if err := p.index.Insert(ctx, records); err != nil {
		return 0, fmt.Errorf("indexing %s: %w", filename, err)
	}
	return len(records), nil
}
