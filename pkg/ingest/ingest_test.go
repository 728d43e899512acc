package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// mockProvider returns fixed-size vectors derived from text length.
type mockProvider struct {
	dimension int
	err       error
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, m.dimension)
		v[0] = float32(len(text))
		vectors[i] = v
	}
	return vectors, nil
}

func (m *mockProvider) Dimension() int { return m.dimension }

// mockIndex collects inserted records.
type mockIndex struct {
	records []vectorstore.Record
	err     error
}

func (m *mockIndex) Insert(_ context.Context, records []vectorstore.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *mockIndex) Search(context.Context, []float32, int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (m *mockIndex) Count(context.Context) (int, error)                  { return len(m.records), nil }
func (m *mockIndex) GetAll(context.Context) ([]vectorstore.Entry, error) { return nil, nil }
func (m *mockIndex) Clear(context.Context) error                         { return nil }
func (m *mockIndex) Exists(context.Context) (bool, error)                { return true, nil }
func (m *mockIndex) Close() error                                        { return nil }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestTextExtractor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "hello world")

	text, err := TextExtractor{}.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Extract() = %q, want %q", text, "hello world")
	}
}

func TestTextExtractorUnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := TextExtractor{}.Extract(context.Background(), "report.pdf")
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Extract() error = %v, want *ExtractionError", err)
	}
	if extractErr.Path != "report.pdf" {
		t.Errorf("ExtractionError.Path = %q, want %q", extractErr.Path, "report.pdf")
	}
}

func TestTextExtractorMissingFile(t *testing.T) {
	t.Parallel()

	_, err := TextExtractor{}.Extract(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Extract() error = %v, want *ExtractionError", err)
	}
}

func TestIngestIndexesChunks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "This opening sentence carries enough words to pass the minimum size check for a chunk. " +
		"A second sentence follows with more detail about the document body and its contents."
	path := writeFile(t, dir, "doc.md", content)

	index := &mockIndex{}
	pipe, err := New(&mockProvider{dimension: 4}, index)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := pipe.Ingest(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.DocumentsIndexed != 1 {
		t.Errorf("DocumentsIndexed = %d, want 1", result.DocumentsIndexed)
	}
	if result.ChunksIndexed == 0 || result.ChunksIndexed != len(index.records) {
		t.Errorf("ChunksIndexed = %d, index holds %d", result.ChunksIndexed, len(index.records))
	}

	rec := index.records[0]
	if rec.Metadata.Filename != "doc.md" {
		t.Errorf("record filename = %q, want %q", rec.Metadata.Filename, "doc.md")
	}
	if rec.Metadata.Source != path {
		t.Errorf("record source = %q, want %q", rec.Metadata.Source, path)
	}
	if rec.Metadata.DocumentID == "" {
		t.Error("record document ID is empty")
	}
	if len(rec.Vector) != 4 {
		t.Errorf("record vector length = %d, want 4", len(rec.Vector))
	}
}

func TestIngestSkipsFailedExtraction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "This sentence is long enough to survive the minimum chunk size filter applied during splitting today.")
	bad := filepath.Join(dir, "bad.pdf")

	index := &mockIndex{}
	pipe, _ := New(&mockProvider{dimension: 4}, index)

	result, err := pipe.Ingest(context.Background(), []string{bad, good})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.DocumentsSkipped != 1 {
		t.Errorf("DocumentsSkipped = %d, want 1", result.DocumentsSkipped)
	}
	if result.DocumentsIndexed != 1 {
		t.Errorf("DocumentsIndexed = %d, want 1", result.DocumentsIndexed)
	}
}

func TestIngestPropagatesEmbeddingFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "This sentence is long enough to survive the minimum chunk size filter applied during splitting today.")

	pipe, _ := New(&mockProvider{dimension: 4, err: errors.New("model unavailable")}, &mockIndex{})

	if _, err := pipe.Ingest(context.Background(), []string{path}); err == nil {
		t.Error("Ingest() with failing provider, want error, got nil")
	}
}

func TestIngestPropagatesIndexFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "This sentence is long enough to survive the minimum chunk size filter applied during splitting today.")

	pipe, _ := New(&mockProvider{dimension: 4}, &mockIndex{err: errors.New("index offline")})

	if _, err := pipe.Ingest(context.Background(), []string{path}); err == nil {
		t.Error("Ingest() with failing index, want error, got nil")
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &mockIndex{}); err == nil {
		t.Error("New(nil provider) error = nil, want error")
	}
	if _, err := New(&mockProvider{dimension: 4}, nil); err == nil {
		t.Error("New(nil index) error = nil, want error")
	}
}
