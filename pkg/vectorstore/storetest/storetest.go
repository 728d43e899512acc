// Package storetest exercises the vectorstore.Index contract against any
// backend. Backend packages call Run from their own tests with a factory
// that opens a fresh, empty index.
package storetest

import (
	"context"
	"math"
	"testing"

	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
)

// Dimension is the vector dimension the suite opens indexes with.
const Dimension = 4

// Factory opens a fresh empty index for one test. Cleanup is the caller's
// job, via t.Cleanup.
type Factory func(t *testing.T) vectorstore.Index

// Run executes the full Index contract suite against the backend.
func Run(t *testing.T, open Factory) {
	t.Run("InsertAndCount", func(t *testing.T) { testInsertAndCount(t, open) })
	t.Run("SearchRanksBySimilarity", func(t *testing.T) { testSearchRanksBySimilarity(t, open) })
	t.Run("SearchHonorsLimit", func(t *testing.T) { testSearchHonorsLimit(t, open) })
	t.Run("SearchEmptyIndex", func(t *testing.T) { testSearchEmptyIndex(t, open) })
	t.Run("SearchScoreBounds", func(t *testing.T) { testSearchScoreBounds(t, open) })
	t.Run("InsertSkipsMissingVector", func(t *testing.T) { testInsertSkipsMissingVector(t, open) })
	t.Run("InsertRejectsDimensionMismatch", func(t *testing.T) { testInsertRejectsDimensionMismatch(t, open) })
	t.Run("GetAllPreservesMetadata", func(t *testing.T) { testGetAllPreservesMetadata(t, open) })
	t.Run("Clear", func(t *testing.T) { testClear(t, open) })
	t.Run("Exists", func(t *testing.T) { testExists(t, open) })
}

// unit returns a normalized vector pointing along the given axis, tilted by
// theta radians toward the next axis. Smaller theta means closer to the
// query along that axis.
func unit(axis int, theta float64) []float32 {
	v := make([]float32, Dimension)
	v[axis] = float32(math.Cos(theta))
	v[(axis+1)%Dimension] = float32(math.Sin(theta))
	return v
}

func seedRecords() []vectorstore.Record {
	return []vectorstore.Record{
		{
			Text:   "alpha",
			Vector: unit(0, 0),
			Metadata: vectorstore.Metadata{
				Filename:    "alpha.txt",
				PageNumbers: []int{1, 2},
				Title:       "Chunk 1",
				Source:      "alpha.txt",
				DocumentID:  "doc-alpha",
			},
		},
		{
			Text:   "beta",
			Vector: unit(0, 0.5),
			Metadata: vectorstore.Metadata{
				Filename:   "beta.txt",
				Title:      "Chunk 1",
				Source:     "beta.txt",
				DocumentID: "doc-beta",
			},
		},
		{
			Text:   "gamma",
			Vector: unit(1, 0),
			Metadata: vectorstore.Metadata{
				Filename:   "gamma.txt",
				Title:      "Chunk 1",
				Source:     "gamma.txt",
				DocumentID: "doc-gamma",
			},
		},
	}
}

func mustInsert(t *testing.T, idx vectorstore.Index, records []vectorstore.Record) {
	t.Helper()
	if err := idx.Insert(context.Background(), records); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}

func testInsertAndCount(t *testing.T, open Factory) {
	idx := open(t)
	ctx := context.Background()

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("Count() on fresh index = %d, want 0", count)
	}

	mustInsert(t, idx, seedRecords())

	count, err = idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func testSearchRanksBySimilarity(t *testing.T, open Factory) {
	idx := open(t)
	mustInsert(t, idx, seedRecords())

	results, err := idx.Search(context.Background(), unit(0, 0), 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3", len(results))
	}

	wantOrder := []string{"alpha", "beta", "gamma"}
	for i, want := range wantOrder {
		if results[i].Text != want {
			t.Errorf("results[%d].Text = %q, want %q", i, results[i].Text, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not ranked: score[%d]=%v > score[%d]=%v",
				i, results[i].Score, i-1, results[i-1].Score)
		}
	}
}

func testSearchHonorsLimit(t *testing.T, open Factory) {
	idx := open(t)
	mustInsert(t, idx, seedRecords())

	results, err := idx.Search(context.Background(), unit(0, 0), 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search(k=2) returned %d results, want 2", len(results))
	}
}

func testSearchEmptyIndex(t *testing.T, open Factory) {
	idx := open(t)

	results, err := idx.Search(context.Background(), unit(0, 0), 5)
	if err != nil {
		t.Fatalf("Search() on empty index error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() on empty index returned %d results, want 0", len(results))
	}
}

func testSearchScoreBounds(t *testing.T, open Factory) {
	idx := open(t)
	mustInsert(t, idx, seedRecords())

	results, err := idx.Search(context.Background(), unit(0, 0), 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("results[%d].Score = %v, want within [0, 1]", i, r.Score)
		}
	}
	// The exact match should score near 1.
	if results[0].Score < 0.99 {
		t.Errorf("exact match score = %v, want >= 0.99", results[0].Score)
	}
}

func testInsertSkipsMissingVector(t *testing.T, open Factory) {
	idx := open(t)
	ctx := context.Background()

	records := []vectorstore.Record{
		{Text: "has vector", Vector: unit(0, 0)},
		{Text: "no vector"},
	}
	mustInsert(t, idx, records)

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 (vectorless record skipped)", count)
	}
}

func testInsertRejectsDimensionMismatch(t *testing.T, open Factory) {
	idx := open(t)

	records := []vectorstore.Record{
		{Text: "wrong size", Vector: []float32{1, 0}},
	}
	if err := idx.Insert(context.Background(), records); err == nil {
		t.Error("Insert() with mismatched dimension, want error, got nil")
	}
}

func testGetAllPreservesMetadata(t *testing.T, open Factory) {
	idx := open(t)
	mustInsert(t, idx, seedRecords())

	entries, err := idx.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("GetAll() returned %d entries, want 3", len(entries))
	}

	byText := map[string]vectorstore.Entry{}
	for _, e := range entries {
		byText[e.Text] = e
	}
	alpha, ok := byText["alpha"]
	if !ok {
		t.Fatal("GetAll() missing entry for alpha")
	}
	if alpha.Metadata.Filename != "alpha.txt" {
		t.Errorf("alpha Filename = %q, want %q", alpha.Metadata.Filename, "alpha.txt")
	}
	if len(alpha.Metadata.PageNumbers) != 2 || alpha.Metadata.PageNumbers[0] != 1 || alpha.Metadata.PageNumbers[1] != 2 {
		t.Errorf("alpha PageNumbers = %v, want [1 2]", alpha.Metadata.PageNumbers)
	}
	if alpha.Metadata.DocumentID != "doc-alpha" {
		t.Errorf("alpha DocumentID = %q, want %q", alpha.Metadata.DocumentID, "doc-alpha")
	}
}

func testClear(t *testing.T, open Factory) {
	idx := open(t)
	ctx := context.Background()

	mustInsert(t, idx, seedRecords())
	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() after Clear() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", count)
	}

	// The index stays usable after a clear.
	mustInsert(t, idx, seedRecords()[:1])
	count, err = idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after reinsert = %d, want 1", count)
	}
}

func testExists(t *testing.T, open Factory) {
	idx := open(t)

	// Some backends create their collection lazily, so only assert after
	// data has been written.
	mustInsert(t, idx, seedRecords())

	exists, err := idx.Exists(context.Background())
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after insert, want true")
	}
}
