// Package auth implements the interactive side of the ems login: building
// the authorization redirect, receiving the provider's callback on a local
// listener, exchanging the code for tokens and signing out.
//
// A login attempt moves through the Coordinator states
//
//	Idle -> Validating -> Exchanging -> Success | Failed
//
// Failed is recoverable: a new login (or Coordinator.Reset) starts over.
// Every transient artifact of an attempt (anti-CSRF state, PKCE verifier,
// processed-code marker) is removed on both success and failure, so a
// failed exchange never blocks the next attempt.
//
// The session itself lives in internal/session; this package only drives
// the protocol and writes the outcome through session.Repository.
package auth
