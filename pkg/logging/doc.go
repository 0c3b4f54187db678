// Package logging provides the subsystem-scoped structured logger used across ems.
//
// It is a thin layer over log/slog: every entry carries a subsystem attribute and
// messages use printf-style formatting.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Auth", "Opening browser for %s", realm)
//	logging.Debug("Session", "Swept %d processed codes", n)
//	logging.Error("Gateway", err, "Request to %s failed", path)
//
// # Subsystems
//
//   - Auth: login flow, callback coordination, logout
//   - Session: token storage and the auth-state watcher
//   - Gateway: calls to the department and employee services
//   - Config: configuration loading
//
// # Audit Logging
//
// Security relevant actions (successful and failed logins, logouts, sessions
// cleared after a 401) are logged through Audit:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "logout",
//	    Outcome: "success",
//	    Subject: identity.Username,
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix. Access and
// refresh tokens are never logged; TruncateSecret yields a short prefix for
// correlation when one is needed.
package logging
