package llm

import "testing"

func TestOptionsNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		in              Options
		wantMaxTokens   int
		wantTemperature float32
	}{
		{
			name:            "zero value gets defaults",
			in:              Options{},
			wantMaxTokens:   DefaultMaxTokens,
			wantTemperature: DefaultTemperature,
		},
		{
			name:            "explicit values kept",
			in:              Options{MaxTokens: 512, Temperature: 0.2},
			wantMaxTokens:   512,
			wantTemperature: 0.2,
		},
		{
			name:            "negative max tokens replaced",
			in:              Options{MaxTokens: -1, Temperature: 1.5},
			wantMaxTokens:   DefaultMaxTokens,
			wantTemperature: 1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.in.Normalize()
			if got.MaxTokens != tt.wantMaxTokens {
				t.Errorf("MaxTokens = %d, want %d", got.MaxTokens, tt.wantMaxTokens)
			}
			if got.Temperature != tt.wantTemperature {
				t.Errorf("Temperature = %v, want %v", got.Temperature, tt.wantTemperature)
			}
		})
	}
}
