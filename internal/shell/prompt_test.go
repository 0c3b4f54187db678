package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ems/internal/session"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name   string
		status session.Status
		want   string
	}{
		{name: "signed out", status: session.Status{}, want: "ems [SIGNED OUT] » "},
		{
			name:   "user",
			status: session.Status{Authenticated: true, Identity: &session.Identity{Username: "alice"}},
			want:   "ems alice » ",
		},
		{
			name:   "admin",
			status: session.Status{Authenticated: true, Admin: true, Identity: &session.Identity{Username: "root"}},
			want:   "ems root [ADMIN] » ",
		},
		{
			name:   "authenticated without identity",
			status: session.Status{Authenticated: true},
			want:   "ems » ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPrompt(tt.status))
		})
	}
}

func TestBuildPrompt_TruncatesLongUsernames(t *testing.T) {
	long := strings.Repeat("x", 40)
	prompt := BuildPrompt(session.Status{Authenticated: true, Identity: &session.Identity{Username: long}})
	assert.Contains(t, prompt, strings.Repeat("x", maxUsernameLength-3)+"...")
	assert.NotContains(t, prompt, long)
}
