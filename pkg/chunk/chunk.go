// Package chunk splits extracted document text into bounded, overlap-aware
// segments suitable for embedding and indexing.
package chunk

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Default splitting parameters, tuned for sentence-transformer style
// embedding models.
const (
	DefaultMaxTokens    = 512
	DefaultOverlap      = 50
	DefaultMinChunkSize = 100
)

// Chunk is one bounded segment of a source document with its provenance.
//
// Chunks are immutable once produced: the ingestion pipeline owns them until
// they are indexed, after which only the index's copy matters.
type Chunk struct {
	Text        string // Segment text, trimmed
	Filename    string // Base name of the source document
	Source      string // Absolute source reference (path or URL)
	PageNumbers []int  // Page markers found inside the segment, ascending, deduplicated
	Title       string // Sequential section title, "Chunk N"
	DocumentID  string // Opaque document identifier
}

// Splitter segments text by sentence under a word-count budget.
//
// When the next sentence would exceed the budget the current segment is
// closed and the following one is seeded with the tail of the closed
// segment, preserving local continuity across boundaries.
//
// Example:
//
//	s := chunk.NewSplitter(chunk.WithMaxTokens(256))
//	chunks := s.Split(text, "report.pdf", "/docs/report.pdf", docID)
type Splitter struct {
	maxTokens    int
	overlap      int
	minChunkSize int
	logger       zerolog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxTokens sets the word-count budget per chunk.
func WithMaxTokens(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithOverlap sets the number of trailing words carried into the next chunk.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// WithMinChunkSize sets the minimum chunk length in characters. Shorter
// segments are treated as noise and dropped.
func WithMinChunkSize(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.minChunkSize = n
		}
	}
}

// WithLogger sets the structured logger used for split diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Splitter) { s.logger = l }
}

// NewSplitter creates a Splitter with the given options applied over the
// package defaults.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		maxTokens:    DefaultMaxTokens,
		overlap:      DefaultOverlap,
		minChunkSize: DefaultMinChunkSize,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// Overlap must leave room for at least one new sentence per chunk.
	if s.overlap >= s.maxTokens {
		s.overlap = s.maxTokens / 4
	}
	return s
}

var (
	sentenceDelim = regexp.MustCompile(`[.!?]+`)
	pageMarker    = regexp.MustCompile(`\[Page (\d+)\]`)
)

// Split segments text into chunks carrying the given provenance.
//
// Empty input produces an empty result, not an error. A single sentence
// longer than the budget becomes its own oversized chunk rather than being
// split further.
func (s *Splitter) Split(text, filename, source, documentID string) []Chunk {
	segments := s.segment(text)
	if len(segments) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(segments))
	for i, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if len(trimmed) < s.minChunkSize {
			s.logger.Debug().
				Str("filename", filename).
				Int("segment", i+1).
				Int("length", len(trimmed)).
				Msg("dropping undersized chunk")
			continue
		}
		chunks = append(chunks, Chunk{
			Text:        trimmed,
			Filename:    filename,
			Source:      source,
			PageNumbers: ParsePageMarkers(trimmed),
			Title:       "Chunk " + strconv.Itoa(i+1),
			DocumentID:  documentID,
		})
	}

	s.logger.Debug().
		Str("filename", filename).
		Int("segments", len(segments)).
		Int("chunks", len(chunks)).
		Msg("split document")
	return chunks
}

// segment accumulates sentences into raw text segments under the budget.
func (s *Splitter) segment(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var segments []string
	var current []string
	currentCount := 0

	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		if currentCount+len(words) > s.maxTokens && len(current) > 0 {
			segments = append(segments, strings.Join(current, " "))

			// Seed the next segment with the tail of the one just closed.
			var seed []string
			if s.overlap > 0 {
				if len(current) > s.overlap {
					seed = current[len(current)-s.overlap:]
				} else {
					seed = current
				}
			}
			current = append(append([]string{}, seed...), words...)
			currentCount = len(current)
			continue
		}
		current = append(current, words...)
		currentCount += len(words)
	}

	if len(current) > 0 {
		segments = append(segments, strings.Join(current, " "))
	}
	return segments
}

// SplitSentences splits text on runs of terminal punctuation, dropping
// empty fragments.
func SplitSentences(text string) []string {
	parts := sentenceDelim.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// ParsePageMarkers extracts page numbers from inline "[Page N]" markers,
// deduplicated and sorted ascending. Text without markers yields nil.
func ParsePageMarkers(text string) []int {
	matches := pageMarker.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(matches))
	pages := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages
}
