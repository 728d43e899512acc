package embed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOllamaDefaults(t *testing.T) {
	t.Parallel()

	provider, err := NewOllama("")
	if err != nil {
		t.Fatalf("NewOllama() error = %v", err)
	}
	if provider.model != DefaultOllamaModel {
		t.Errorf("model = %q, want %q", provider.model, DefaultOllamaModel)
	}
	if provider.Dimension() != DefaultOllamaDimension {
		t.Errorf("Dimension() = %d, want %d", provider.Dimension(), DefaultOllamaDimension)
	}
}

func TestNewOllamaCustomDimension(t *testing.T) {
	t.Parallel()

	provider, err := NewOllama("mxbai-embed-large", WithOllamaConfig(&OllamaConfig{
		Host:      "http://localhost:11434",
		Dimension: 1024,
	}))
	if err != nil {
		t.Fatalf("NewOllama() error = %v", err)
	}
	if provider.Dimension() != 1024 {
		t.Errorf("Dimension() = %d, want 1024", provider.Dimension())
	}
}

func TestNewOllamaRejectsInvalidDimension(t *testing.T) {
	t.Parallel()

	_, err := NewOllama("", WithOllamaConfig(&OllamaConfig{Dimension: -1}))
	if err == nil {
		t.Error("NewOllama() error = nil, want validation error")
	}
}

func TestEmbedBatchUnavailableModel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	t.Run("ollama", func(t *testing.T) {
		t.Parallel()

		provider, err := NewOllama("", WithOllamaConfig(&OllamaConfig{Host: server.URL}))
		if err != nil {
			t.Fatalf("NewOllama() error = %v", err)
		}
		_, err = provider.EmbedBatch(context.Background(), []string{"hello"})
		if !errors.Is(err, ErrModelUnavailable) {
			t.Errorf("EmbedBatch() error = %v, want ErrModelUnavailable", err)
		}
	})

	t.Run("openai", func(t *testing.T) {
		t.Parallel()

		provider, err := NewOpenAI("", WithOpenAIConfig(&OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		}))
		if err != nil {
			t.Fatalf("NewOpenAI() error = %v", err)
		}
		_, err = provider.EmbedBatch(context.Background(), []string{"hello"})
		if !errors.Is(err, ErrModelUnavailable) {
			t.Errorf("EmbedBatch() error = %v, want ErrModelUnavailable", err)
		}
	})
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAI("")
	if err == nil {
		t.Error("NewOpenAI() without key, want error, got nil")
	}
}

func TestNewOpenAIDefaults(t *testing.T) {
	t.Parallel()

	provider, err := NewOpenAI("", WithOpenAIConfig(&OpenAIConfig{
		APIKey:    "test-key",
		Dimension: DefaultOpenAIDimension,
	}))
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	if provider.model != DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", provider.model, DefaultOpenAIModel)
	}
	if provider.Dimension() != DefaultOpenAIDimension {
		t.Errorf("Dimension() = %d, want %d", provider.Dimension(), DefaultOpenAIDimension)
	}
}
