// Package sqlite implements the vectorstore.Index contract on an embedded
// SQLite database.
//
// Vectors are stored as little-endian float32 blobs and searched with a
// brute-force cosine scan, which is exact and fast enough for the corpus
// sizes a single-process document chat handles. The database file needs no
// external service.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// DefaultCollection is the table name used when none is configured.
const DefaultCollection = "document_chunks"

// Config holds SQLite index configuration.
type Config struct {
	// Path to the database file. The parent directory is created if needed.
	Path string

	// Collection is the table name records are stored under.
	Collection string

	// Dimension every inserted vector must have.
	Dimension int

	// Optional structured logger.
	Logger zerolog.Logger
}

// Index is an embedded SQLite-backed vector index.
type Index struct {
	db         *sql.DB
	collection string
	dimension  int
	logger     zerolog.Logger
}

// New opens (or creates) the database file and ensures the collection table
// exists.
//
// Example:
//
//	idx, err := sqlite.New(&sqlite.Config{
//	    Path:      "./data/doctalk.db",
//	    Dimension: 384,
//	})
func New(config *Config) (*Index, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", config.Dimension)
	}
	if config.Collection == "" {
		config.Collection = DefaultCollection
	}

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", config.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:         db,
		collection: config.Collection,
		dimension:  config.Dimension,
		logger:     config.Logger,
	}
	if err := idx.ensureTable(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (x *Index) ensureTable(ctx context.Context) error {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			text      TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata  TEXT NOT NULL
		)`, x.collection)
	if _, err := x.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("creating table %s: %w", x.collection, err)
	}
	return nil
}

// Insert adds records inside a single transaction. Records without vectors
// are skipped with a warning; a dimension mismatch fails the whole call.
func (x *Index) Insert(ctx context.Context, records []vectorstore.Record) error {
	if x.db == nil {
		return vectorstore.ErrClosed
	}

	prepared, err := vectorstore.NormalizeRecords(records, x.dimension, x.logger)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		x.logger.Warn().Msg("no valid records to insert")
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback()

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (id, text, embedding, metadata) VALUES (?, ?, ?, ?)",
		x.collection)

	for _, rec := range prepared {
		meta, err := json.Marshal(rec.Metadata.Encode())
		if err != nil {
			return fmt.Errorf("encoding metadata for record %s: %w", rec.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, rec.ID, rec.Text, vectorToBytes(rec.Vector), string(meta)); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}
	x.logger.Debug().Int("records", len(prepared)).Msg("inserted records")
	return nil
}

// Search scans every stored vector and returns up to k results ranked by
// descending cosine similarity. Ties keep insertion order.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.SearchResult, error) {
	if x.db == nil {
		return nil, vectorstore.ErrClosed
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("query vector dimension %d, index requires %d", len(vector), x.dimension)
	}
	if k <= 0 {
		return []vectorstore.SearchResult{}, nil
	}

	querySQL := fmt.Sprintf("SELECT text, metadata, embedding FROM %s ORDER BY rowid", x.collection)
	rows, err := x.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, fmt.Errorf("scanning collection %s: %w", x.collection, err)
	}
	defer rows.Close()

	var results []vectorstore.SearchResult
	for rows.Next() {
		var text, metaJSON string
		var blob []byte
		if err := rows.Scan(&text, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		meta, err := decodeMetadataJSON(metaJSON)
		if err != nil {
			return nil, err
		}

		// Cosine distance is 1 - similarity; the reported score is
		// 1 - distance, clamped to [0,1].
		distance := 1 - cosineSimilarity(vector, bytesToVector(blob))
		results = append(results, vectorstore.SearchResult{
			Text:     text,
			Metadata: meta,
			Score:    vectorstore.ClampScore(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	if results == nil {
		results = []vectorstore.SearchResult{}
	}
	return results, nil
}

// Count reports the number of stored records.
func (x *Index) Count(ctx context.Context) (int, error) {
	if x.db == nil {
		return 0, vectorstore.ErrClosed
	}
	var count int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", x.collection)
	if err := x.db.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// GetAll enumerates every stored record in insertion order.
func (x *Index) GetAll(ctx context.Context) ([]vectorstore.Entry, error) {
	if x.db == nil {
		return nil, vectorstore.ErrClosed
	}

	scanSQL := fmt.Sprintf("SELECT text, metadata FROM %s ORDER BY rowid", x.collection)
	rows, err := x.db.QueryContext(ctx, scanSQL)
	if err != nil {
		return nil, fmt.Errorf("scanning collection %s: %w", x.collection, err)
	}
	defer rows.Close()

	entries := []vectorstore.Entry{}
	for rows.Next() {
		var text, metaJSON string
		if err := rows.Scan(&text, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		meta, err := decodeMetadataJSON(metaJSON)
		if err != nil {
			return nil, err
		}
		entries = append(entries, vectorstore.Entry{Text: text, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return entries, nil
}

// Clear drops the collection table and recreates it empty.
func (x *Index) Clear(ctx context.Context) error {
	if x.db == nil {
		return vectorstore.ErrClosed
	}
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", x.collection)
	if _, err := x.db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("dropping table %s: %w", x.collection, err)
	}
	if err := x.ensureTable(ctx); err != nil {
		return err
	}
	x.logger.Info().Str("collection", x.collection).Msg("collection cleared")
	return nil
}

// Exists reports whether the collection table is present.
func (x *Index) Exists(ctx context.Context) (bool, error) {
	if x.db == nil {
		return false, vectorstore.ErrClosed
	}
	var name string
	err := x.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		x.collection,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking table existence: %w", err)
	}
	return true, nil
}

// Close closes the database handle.
func (x *Index) Close() error {
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}

func decodeMetadataJSON(metaJSON string) (vectorstore.Metadata, error) {
	var flat map[string]string
	if err := json.Unmarshal([]byte(metaJSON), &flat); err != nil {
		return vectorstore.Metadata{}, fmt.Errorf("decoding metadata: %w", err)
	}
	return vectorstore.DecodeMetadata(flat), nil
}

// vectorToBytes converts a float32 vector to a little-endian blob.
func vectorToBytes(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, f := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToVector converts a blob back to a float32 vector.
func bytesToVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
