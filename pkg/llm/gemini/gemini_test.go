package gemini

import "testing"

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if _, err := New(""); err == nil {
		t.Error("New() without API key, want error, got nil")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	client, err := New("", WithConfig(&Config{APIKey: "test-key"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.model != DefaultModel {
		t.Errorf("model = %q, want %q", client.model, DefaultModel)
	}
}
