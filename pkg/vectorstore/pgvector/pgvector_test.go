package pgvector

import (
	"testing"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "missing connection string",
			config: &Config{Dimension: 1536},
		},
		{
			name:   "zero dimension",
			config: &Config{ConnectionString: "postgres://localhost/doctalk"},
		},
		{
			name:   "negative dimension",
			config: &Config{ConnectionString: "postgres://localhost/doctalk", Dimension: -1},
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

func TestDecodeMetadataJSON(t *testing.T) {
	t.Parallel()

	meta, err := decodeMetadataJSON([]byte(`{"filename":"a.txt","page_numbers":"1,3","title":"Chunk 2"}`))
	if err != nil {
		t.Fatalf("decodeMetadataJSON() error = %v", err)
	}
	if meta.Filename != "a.txt" {
		t.Errorf("Filename = %q, want %q", meta.Filename, "a.txt")
	}
	if len(meta.PageNumbers) != 2 || meta.PageNumbers[0] != 1 || meta.PageNumbers[1] != 3 {
		t.Errorf("PageNumbers = %v, want [1 3]", meta.PageNumbers)
	}
	if meta.Title != "Chunk 2" {
		t.Errorf("Title = %q, want %q", meta.Title, "Chunk 2")
	}

	meta, err = decodeMetadataJSON(nil)
	if err != nil {
		t.Fatalf("decodeMetadataJSON(nil) error = %v", err)
	}
	if meta.Filename != "" {
		t.Errorf("decodeMetadataJSON(nil) = %+v, want zero value", meta)
	}
}
