package shell

import (
	"strings"

	"ems/internal/session"
	emsstrings "ems/pkg/strings"
)

const (
	promptPrefix  = "ems"
	promptChevron = "»"

	// StateSignedOut is shown in the prompt when there is no valid session.
	StateSignedOut = "[SIGNED OUT]"
	// StateAdmin marks a session holding the ADMIN role.
	StateAdmin = "[ADMIN]"

	maxUsernameLength = 24
)

// BuildPrompt renders the prompt for an authentication state.
func BuildPrompt(status session.Status) string {
	parts := []string{promptPrefix}

	switch {
	case !status.Authenticated:
		parts = append(parts, StateSignedOut)
	default:
		if status.Identity != nil && status.Identity.Username != "" {
			parts = append(parts, emsstrings.Truncate(status.Identity.Username, maxUsernameLength))
		}
		if status.Admin {
			parts = append(parts, StateAdmin)
		}
	}

	parts = append(parts, promptChevron)
	return strings.Join(parts, " ") + " "
}
