package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims a free-text input and caps it at maxLen runes so
// search terms and names stay bounded before they reach the upstream as
// query params. Control characters are dropped. maxLen <= 0 means no cap.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= maxLen {
		return cleaned
	}
	return string(runes[:maxLen])
}
