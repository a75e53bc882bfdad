package validators

import (
	"strings"
	"unicode"
)

// SanitizeText trims s, drops control characters and caps it at maxRunes.
func SanitizeText(s string, maxRunes int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if maxRunes > 0 {
		if runes := []rune(cleaned); len(runes) > maxRunes {
			return string(runes[:maxRunes])
		}
	}
	return cleaned
}
