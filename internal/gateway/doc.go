// Package gateway is the authenticated request pipeline to the employee
// management REST gateway, plus typed clients for the department and
// employee services behind it.
//
// Every request goes through Transport, which reads the access token from
// the session repository at send time. A 401 from the gateway clears the
// session and surfaces as *ErrSessionExpired; callers send the user back to
// `ems auth login`.
package gateway
