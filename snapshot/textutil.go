package snapshot

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// textLen measures s in UTF-16 code units so length thresholds behave the same for
// astral-plane text as they do in browser exports.
func textLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// truncateUnits cuts s to at most max UTF-16 code units without splitting a rune.
func truncateUnits(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if n+w > max {
			return s[:i]
		}
		n += w
	}
	return s
}

// upperFirst uppercases the first rune of s.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}
