// Package vectorstore defines the backend-agnostic contract for storing and
// searching embedded document chunks.
//
// Every backend satisfies the same Index interface: ranked similarity search
// with scores normalized to [0,1], whole-collection enumeration, and a
// full-collection clear. Backend-native distance metrics and metadata models
// never leak through the interface.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by operations on an index whose Close was called.
var ErrClosed = errors.New("vectorstore: index is closed")

// Record is one indexed chunk: its text, embedding vector, and metadata.
//
// Records are immutable once inserted and removed only by Clear; there is no
// single-record delete.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// SearchResult is a transient similarity match produced per query.
//
// Score is a similarity in [0,1], derived as 1 - distance under the
// backend's cosine distance. Results with equal scores keep the backend's
// return order.
type SearchResult struct {
	Text     string
	Metadata Metadata
	Score    float64
}

// Entry is a stored record's text and metadata, as returned by full scans.
type Entry struct {
	Text     string
	Metadata Metadata
}

// Index is a persistent store of (vector, text, metadata) records.
//
// Insert is durably visible to subsequent searches issued from the same
// process once it returns. Implementations do not coordinate concurrent
// writers across processes; that is left to the backend's own guarantees.
type Index interface {
	// Insert adds records to the index. Records without a vector are
	// skipped with a warning; dimension mismatches fail the call.
	Insert(ctx context.Context, records []Record) error

	// Search returns up to k results ranked by descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)

	// Count reports the number of stored records.
	Count(ctx context.Context) (int, error)

	// GetAll enumerates every stored record's text and metadata.
	GetAll(ctx context.Context) ([]Entry, error)

	// Clear deletes all records and reinitializes the empty collection
	// under the same name.
	Clear(ctx context.Context) error

	// Exists reports whether the named collection is present.
	Exists(ctx context.Context) (bool, error)

	// Close releases backend resources.
	Close() error
}

// NormalizeRecords prepares records for insertion under a shared contract:
// records missing a vector are dropped with a warning, vectors of the wrong
// dimension fail the whole call, and missing IDs are assigned fresh UUIDs.
//
// Backends call this before translating records to their native form so the
// skip/assign behavior is identical everywhere.
func NormalizeRecords(records []Record, dimension int, logger zerolog.Logger) ([]Record, error) {
	out := make([]Record, 0, len(records))
	for i, rec := range records {
		if len(rec.Vector) == 0 {
			logger.Warn().
				Int("record", i).
				Str("title", rec.Metadata.Title).
				Msg("record missing vector, skipping")
			continue
		}
		if len(rec.Vector) != dimension {
			return nil, fmt.Errorf("record %d has vector dimension %d, index requires %d", i, len(rec.Vector), dimension)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		out = append(out, rec)
	}
	return out, nil
}

// ClampScore bounds a backend-reported similarity to [0,1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
