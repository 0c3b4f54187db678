package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr error
	}{
		{name: "empty", line: "", want: nil},
		{name: "blank", line: "   \t ", want: nil},
		{name: "words", line: "departments list", want: []string{"departments", "list"}},
		{name: "extra spaces", line: "  employees   get  7 ", want: []string{"employees", "get", "7"}},
		{
			name: "double quotes",
			line: `departments create --name "Human Resources" --location Berlin`,
			want: []string{"departments", "create", "--name", "Human Resources", "--location", "Berlin"},
		},
		{name: "single quotes keep backslashes", line: `a 'b\c'`, want: []string{"a", `b\c`}},
		{name: "escaped space", line: `a b\ c`, want: []string{"a", "b c"}},
		{name: "empty quoted argument", line: `a ""`, want: []string{"a", ""}},
		{name: "adjacent quotes join", line: `--name="R&D team"`, want: []string{"--name=R&D team"}},
		{name: "unterminated quote", line: `a "b`, wantErr: ErrUnterminatedQuote},
		{name: "trailing backslash", line: `a \`, wantErr: ErrUnterminatedQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
