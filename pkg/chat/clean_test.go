package chat

import "testing"

func TestCleanAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   "   \n\t ",
			want: "",
		},
		{
			name: "already clean",
			in:   "The deadline is Friday.",
			want: "The deadline is Friday.",
		},
		{
			name: "missing terminal punctuation",
			in:   "the deadline is Friday",
			want: "The deadline is Friday.",
		},
		{
			name: "collapses whitespace",
			in:   "The  deadline\n\nis   Friday.",
			want: "The deadline is Friday.",
		},
		{
			name: "strips space before punctuation",
			in:   "The deadline is Friday .",
			want: "The deadline is Friday.",
		},
		{
			name: "drops citation parenthetical",
			in:   "The deadline is Friday (see Chunk 2).",
			want: "The deadline is Friday.",
		},
		{
			name: "drops source parenthetical",
			in:   "Refunds take ten days (Source: policy.pdf, page 3). Contact support for details.",
			want: "Refunds take ten days. Contact support for details.",
		},
		{
			name: "keeps ordinary parenthetical",
			in:   "The fee is $10 (non-refundable).",
			want: "The fee is $10 (non-refundable).",
		},
		{
			name: "capitalizes sentence starts",
			in:   "first point. second point! third point?",
			want: "First point. Second point! Third point?",
		},
		{
			name: "question mark kept",
			in:   "is that all?",
			want: "Is that all?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanAnswer(tt.in); got != tt.want {
				t.Errorf("CleanAnswer(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
