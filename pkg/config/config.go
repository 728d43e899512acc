// Package config loads application settings from a YAML file and the
// environment. Settings are read once at startup.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Store backend names.
const (
	BackendSQLite   = "sqlite"
	BackendQdrant   = "qdrant"
	BackendPgvector = "pgvector"
)

// StoreConfig selects and configures the vector index backend.
type StoreConfig struct {
	// Backend is one of sqlite, qdrant, or pgvector.
	Backend string `yaml:"backend"`

	// Path to the database file (sqlite).
	Path string `yaml:"path"`

	// Collection or table name records are stored under.
	Collection string `yaml:"collection"`

	// URL of the Qdrant server (qdrant).
	URL string `yaml:"url"`

	// DSN is the PostgreSQL connection string (pgvector).
	DSN string `yaml:"dsn"`
}

// Config holds all application settings.
type Config struct {
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`

	MaxChunkTokens int `yaml:"max_chunk_tokens"`
	ChunkOverlap   int `yaml:"chunk_overlap"`
	MinChunkSize   int `yaml:"min_chunk_size"`

	ResponseLength string `yaml:"response_length"`
	HistoryLimit   int    `yaml:"history_limit"`
	SearchLimit    int    `yaml:"search_limit"`

	Store StoreConfig `yaml:"store"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		EmbeddingModel:     "nomic-embed-text",
		EmbeddingDimension: 768,
		MaxChunkTokens:     512,
		ChunkOverlap:       50,
		MinChunkSize:       100,
		ResponseLength:     "balanced",
		HistoryLimit:       10,
		SearchLimit:        5,
		Store: StoreConfig{
			Backend:    BackendSQLite,
			Path:       "./data/doctalk.db",
			Collection: "document_chunks",
			URL:        "http://localhost:6334",
		},
	}
}

// Load reads .env (best effort), then the YAML file at path if it exists,
// fills unset fields with defaults, and validates the result. An empty path
// skips the file and returns validated defaults.
func Load(path string) (*Config, error) {
	// Missing .env files are fine; explicit settings win over dotenv.
	_ = godotenv.Load()

	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else {
			var overlay fileConfig
			if err := yaml.Unmarshal(data, &overlay); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
			overlay.merge(config)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// fileConfig mirrors Config with pointer fields so the YAML overlay can tell
// an absent key from an explicit zero (chunk_overlap: 0 is a valid setting).
type fileConfig struct {
	EmbeddingModel     *string `yaml:"embedding_model"`
	EmbeddingDimension *int    `yaml:"embedding_dimension"`

	MaxChunkTokens *int `yaml:"max_chunk_tokens"`
	ChunkOverlap   *int `yaml:"chunk_overlap"`
	MinChunkSize   *int `yaml:"min_chunk_size"`

	ResponseLength *string `yaml:"response_length"`
	HistoryLimit   *int    `yaml:"history_limit"`
	SearchLimit    *int    `yaml:"search_limit"`

	Store struct {
		Backend    *string `yaml:"backend"`
		Path       *string `yaml:"path"`
		Collection *string `yaml:"collection"`
		URL        *string `yaml:"url"`
		DSN        *string `yaml:"dsn"`
	} `yaml:"store"`
}

// merge overwrites fields of c that the file set.
func (f *fileConfig) merge(c *Config) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&c.EmbeddingModel, f.EmbeddingModel)
	setInt(&c.EmbeddingDimension, f.EmbeddingDimension)
	setInt(&c.MaxChunkTokens, f.MaxChunkTokens)
	setInt(&c.ChunkOverlap, f.ChunkOverlap)
	setInt(&c.MinChunkSize, f.MinChunkSize)
	setString(&c.ResponseLength, f.ResponseLength)
	setInt(&c.HistoryLimit, f.HistoryLimit)
	setInt(&c.SearchLimit, f.SearchLimit)
	setString(&c.Store.Backend, f.Store.Backend)
	setString(&c.Store.Path, f.Store.Path)
	setString(&c.Store.Collection, f.Store.Collection)
	setString(&c.Store.URL, f.Store.URL)
	setString(&c.Store.DSN, f.Store.DSN)
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding_dimension must be positive, got %d", c.EmbeddingDimension)
	}
	if c.MaxChunkTokens <= 0 {
		return fmt.Errorf("max_chunk_tokens must be positive, got %d", c.MaxChunkTokens)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("min_chunk_size must not be negative, got %d", c.MinChunkSize)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("search_limit must be positive, got %d", c.SearchLimit)
	}

	switch c.ResponseLength {
	case "brief", "balanced", "detailed":
	default:
		return fmt.Errorf("response_length must be brief, balanced, or detailed, got %q", c.ResponseLength)
	}

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case BackendQdrant:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the qdrant backend")
		}
	case BackendPgvector:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the pgvector backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
