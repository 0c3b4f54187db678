// Package cli provides the command-line plumbing shared by the ems commands.
//
// # Output
//
// Command results implement Renderable. A Printer writes them as a
// kubectl-style plain table (go-pretty), as indented JSON, or as YAML
// converted from the JSON form so that field names match in both.
//
// # Execution
//
// Executor wraps a single gateway call: it shows a spinner on stderr while
// the call runs (table output only, never with --quiet), prints the
// result, and passes failures through TranslateError.
//
// # Errors
//
// TranslateError maps lower layers onto errors that carry guidance for the
// user and select the process exit code:
//
//   - gateway.ErrSessionExpired becomes AuthExpiredError
//   - auth.LoginError, oauth.ExchangeError and login timeouts become AuthFailedError
//   - a 403 from the gateway becomes ForbiddenError
//   - transport failures become a classified ConnectionError
//
// AuthRequiredError is raised by commands themselves when no session exists.
package cli
