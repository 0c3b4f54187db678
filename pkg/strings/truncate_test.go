package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short", input: "alice", maxLen: 10, expected: "alice"},
		{name: "exact length", input: "alice", maxLen: 5, expected: "alice"},
		{name: "shortened", input: "firstname.lastname@example", maxLen: 12, expected: "firstname..."},
		{name: "newlines collapsed", input: "line one\n\n  line two", maxLen: 40, expected: "line one line two"},
		{name: "multi-byte runes", input: "Zoë Müller-Lüdenscheidt", maxLen: 10, expected: "Zoë Mül..."},
		{name: "tiny max is clamped", input: "abcdef", maxLen: 1, expected: "a..."},
		{name: "empty", input: "", maxLen: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLen))
		})
	}
}
