package title

import (
	"strings"
	"testing"
	"unicode/utf8"

	"chatcore/internal/models"
)

func TestGenerate(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", models.PlaceholderTitle},
		{"whitespace only", "   \n\t  ", models.PlaceholderTitle},
		{"short message", "Hello there", "Hello there"},
		{"trims surrounding space", "  Hello there  ", "Hello there"},
		{"first line only", "What is Go?\nAnd why should I care?", "What is Go?"},
		{"blank first line falls back", "\n\nsecond line here", "second line here"},
		{"exactly fifty runes", strings.Repeat("a", 50), strings.Repeat("a", 50)},
		{
			"breaks at word boundary",
			"This is a fairly long question about the behavior of concurrent maps in Go",
			"This is a fairly long question about the...",
		},
		{
			"single long word keeps hard cut",
			strings.Repeat("x", 80),
			strings.Repeat("x", 50) + "...",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Generate(tc.input)
			if got != tc.want {
				t.Fatalf("Generate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestGenerateNeverExceedsLimit(t *testing.T) {
	inputs := []string{
		strings.Repeat("word ", 40),
		strings.Repeat("日本語のテキスト", 30),
		"short",
	}
	for _, input := range inputs {
		got := Generate(input)
		if n := utf8.RuneCountInString(got); n > MaxLen+len(ellipsis) {
			t.Fatalf("Generate(%q) produced %d runes: %q", input, n, got)
		}
	}
}

func TestGenerateMultibyteBoundary(t *testing.T) {
	// 60 multibyte runes; the cut must land between runes, not bytes.
	input := strings.Repeat("界", 60)
	got := Generate(input)
	if !utf8.ValidString(got) {
		t.Fatalf("generated title is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation marker, got %q", got)
	}
}
