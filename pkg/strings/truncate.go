// Package strings holds small text helpers shared by the ems CLI.
package strings

import (
	"strings"
)

// MinTruncateLen is the smallest maxLen Truncate honours: one character
// plus "...".
const MinTruncateLen = 4

// Truncate collapses s onto a single line and shortens it to at most maxLen
// runes, ending in "..." when shortened. Usernames and provider messages
// can carry newlines or multi-byte characters, so it works on runes.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
