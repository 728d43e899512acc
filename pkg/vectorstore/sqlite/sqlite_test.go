package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/doctalk-ai/doctalk/pkg/vectorstore"
	"github.com/doctalk-ai/doctalk/pkg/vectorstore/storetest"
)

func openTestIndex(t *testing.T) vectorstore.Index {
	t.Helper()
	idx, err := New(&Config{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		Dimension: storetest.Dimension,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexContract(t *testing.T) {
	storetest.Run(t, openTestIndex)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "missing path",
			config: &Config{Dimension: 4},
		},
		{
			name:   "zero dimension",
			config: &Config{Path: "x.db"},
		},
		{
			name:   "negative dimension",
			config: &Config{Path: "x.db", Dimension: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.config); err == nil {
				t.Error("New() error = nil, want validation error")
			}
		})
	}
}

func TestDefaultCollectionName(t *testing.T) {
	t.Parallel()

	idx, err := New(&Config{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		Dimension: 4,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer idx.Close()

	if idx.collection != DefaultCollection {
		t.Errorf("collection = %q, want %q", idx.collection, DefaultCollection)
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	idx, err := New(&Config{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		Dimension: 4,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	same := []float32{1, 0, 0, 0}
	records := []vectorstore.Record{
		{Text: "first", Vector: same},
		{Text: "second", Vector: same},
		{Text: "third", Vector: same},
	}
	if err := idx.Insert(ctx, records); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	results, err := idx.Search(ctx, same, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Text != w {
			t.Errorf("results[%d].Text = %q, want %q", i, results[i].Text, w)
		}
	}
}

func TestOperationsAfterClose(t *testing.T) {
	t.Parallel()

	idx, err := New(&Config{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		Dimension: 4,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := idx.Count(ctx); err != vectorstore.ErrClosed {
		t.Errorf("Count() after Close() error = %v, want ErrClosed", err)
	}
	if err := idx.Insert(ctx, nil); err != vectorstore.ErrClosed {
		t.Errorf("Insert() after Close() error = %v, want ErrClosed", err)
	}
	if err := idx.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	t.Parallel()

	vector := []float32{0.1, -2.5, 3.25, 0}
	got := bytesToVector(vectorToBytes(vector))
	if len(got) != len(vector) {
		t.Fatalf("round trip length = %d, want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("round trip[%d] = %v, want %v", i, got[i], vector[i])
		}
	}
}
