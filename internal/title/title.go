// Package title derives conversation titles from the first user message.
// Everything here is pure and deterministic.
package title

import (
	"strings"
	"unicode/utf8"

	"chatcore/internal/models"
)

const (
	// MaxLen bounds a generated title, in runes, before the ellipsis.
	MaxLen = 50

	ellipsis = "..."

	// minBreak keeps the word-boundary backoff from producing uselessly
	// short titles out of one long leading word.
	minBreak = 20
)

// Generate builds a short title from the first user message: whitespace
// trimmed, first line only, truncated to MaxLen runes at a word boundary
// where possible, with an ellipsis marker when anything was cut. Empty
// input yields the placeholder used by new conversations.
func Generate(firstUserMessage string) string {
	text := strings.TrimSpace(firstUserMessage)
	if text == "" {
		return models.PlaceholderTitle
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	if text == "" {
		return models.PlaceholderTitle
	}
	if utf8.RuneCountInString(text) <= MaxLen {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:MaxLen])
	if idx := strings.LastIndexByte(cut, ' '); idx >= minBreak {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + ellipsis
}
