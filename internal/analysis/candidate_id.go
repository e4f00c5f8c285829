package analysis

import (
	"strings"
	"unicode"
)

// CandidateID derives the stable identifier for a candidate. It is a pure
// function of (candidateName, prefecture): strip everything that is not an
// ASCII alphanumeric or Japanese-script character, lower-case, and join as
// "prefecture-name". Repeated analyses of the same candidate always land on
// the same id.
func CandidateID(candidateName, prefecture string) string {
	return sanitizeIDPart(prefecture) + "-" + sanitizeIDPart(candidateName)
}

func sanitizeIDPart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isIDRune(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// isIDRune permits ASCII alphanumerics plus Hiragana, Katakana (including
// the prolonged sound mark), CJK ideographs, and the iteration mark.
func isIDRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 0x3040 && r <= 0x309F: // Hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // Katakana + prolonged sound mark
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r == 0x3005: // 々 iteration mark
		return true
	}
	return false
}
