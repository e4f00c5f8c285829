package scrape

import (
	"strings"
	"testing"
)

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	got := NormalizeText("  政策 \n\t を  実現\r\n します  ")
	want := "政策 を 実現 します"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeTextStripsControlChars(t *testing.T) {
	got := NormalizeText("abc\x00def\x07ghi")
	if got != "abcdefghi" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeTextTruncates(t *testing.T) {
	long := strings.Repeat("あ", MaxTextLength+500)
	got := NormalizeText(long)
	if n := len([]rune(got)); n != MaxTextLength {
		t.Fatalf("expected %d runes, got %d", MaxTextLength, n)
	}
}

func TestNormalizeTextExactCapUntouched(t *testing.T) {
	exact := strings.Repeat("a", MaxTextLength)
	if got := NormalizeText(exact); got != exact {
		t.Fatalf("text at the cap should pass through unchanged")
	}
}
