package ollama

import (
	"testing"

	"github.com/doctalk-ai/doctalk/pkg/llm"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	client, err := New("", WithConfig(&Config{Host: "http://localhost:11434"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.model != DefaultModel {
		t.Errorf("model = %q, want %q", client.model, DefaultModel)
	}
}

func TestNewRejectsBadHost(t *testing.T) {
	t.Parallel()

	if _, err := New("llama3.2", WithConfig(&Config{Host: "://bad"})); err == nil {
		t.Error("New() with malformed host, want error, got nil")
	}
}

func TestBuildRequestAppliesOptions(t *testing.T) {
	t.Parallel()

	client, err := New("llama3.2", WithConfig(&Config{Host: "http://localhost:11434", KeepAlive: "5m"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := client.buildRequest("hello", llm.Options{MaxTokens: 256, Temperature: 0.5}, true)

	if req.Model != "llama3.2" {
		t.Errorf("Model = %q, want %q", req.Model, "llama3.2")
	}
	if req.Stream == nil || !*req.Stream {
		t.Error("Stream = false, want true")
	}
	if req.Options["num_predict"] != 256 {
		t.Errorf("num_predict = %v, want 256", req.Options["num_predict"])
	}
	if req.Options["temperature"] != float32(0.5) {
		t.Errorf("temperature = %v, want 0.5", req.Options["temperature"])
	}
	if req.Options["keep_alive"] != "5m" {
		t.Errorf("keep_alive = %v, want 5m", req.Options["keep_alive"])
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("Messages = %+v, want single user message", req.Messages)
	}
}

func TestBuildRequestZeroOptionsGetDefaults(t *testing.T) {
	t.Parallel()

	client, err := New("", WithConfig(&Config{Host: "http://localhost:11434"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := client.buildRequest("hello", llm.Options{}, false)
	if req.Options["num_predict"] != llm.DefaultMaxTokens {
		t.Errorf("num_predict = %v, want %d", req.Options["num_predict"], llm.DefaultMaxTokens)
	}
	if req.Options["temperature"] != float32(llm.DefaultTemperature) {
		t.Errorf("temperature = %v, want %v", req.Options["temperature"], llm.DefaultTemperature)
	}
}
