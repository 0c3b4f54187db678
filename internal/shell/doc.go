// Package shell implements the interactive ems shell.
//
// The shell reads lines with readline, splits them into arguments and hands
// them to a Runner, which in ems executes the same cobra commands as the
// command line. All commands of one shell share one process, and therefore
// one volatile session storage.
//
// The prompt reflects the authentication state. It follows a
// session.Watcher, so a login or logout in another terminal, or the access
// token expiring, updates the prompt without user input:
//
//	ems alice [ADMIN] »
//	ems [SIGNED OUT] »
//
// The auth subcommands are also available without the "auth" prefix
// (login, logout, status, whoami).
package shell
