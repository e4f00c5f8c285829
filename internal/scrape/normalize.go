package scrape

import (
	"strings"
	"unicode"
)

// NormalizeText collapses whitespace runs to single spaces, strips control
// characters, trims, and truncates to MaxTextLength runes.
func NormalizeText(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := false
	for _, r := range raw {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	text := strings.TrimSpace(b.String())
	runes := []rune(text)
	if len(runes) > MaxTextLength {
		text = string(runes[:MaxTextLength])
	}
	return text
}
