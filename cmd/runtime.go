package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"ems/internal/app"
	"ems/internal/cli"
	"ems/internal/config"
	"ems/internal/gateway"
	"ems/internal/session"
)

// runtime carries the flag values and the lazily built services shared by
// the commands of one process.
type runtime struct {
	flags  cli.CommandFlags
	out    io.Writer
	errOut io.Writer

	// settings and serviceOptions replace the loaded configuration and
	// customize the services; used by tests.
	settings       *config.Config
	serviceOptions []app.ServiceOption

	application *app.Application
}

func newRuntime(out, errOut io.Writer) *runtime {
	return &runtime{out: out, errOut: errOut}
}

// services bootstraps the application on first use.
func (rt *runtime) services() (*app.Services, error) {
	if rt.application != nil {
		return rt.application.Services(), nil
	}

	cfg := app.NewConfig(rt.flags.Debug, rt.flags.Quiet, rt.flags.ConfigPath)
	cfg.LogOutput = rt.errOut
	cfg.Settings = rt.settings
	cfg.ServiceOptions = rt.serviceOptions

	application, err := app.NewApplication(cfg)
	if err != nil {
		return nil, err
	}
	rt.application = application
	return application.Services(), nil
}

// executor creates an executor for calls against endpoint.
func (rt *runtime) executor(endpoint string) (*cli.Executor, error) {
	opts, err := rt.flags.ToExecutorOptions(endpoint, rt.out, rt.errOut)
	if err != nil {
		return nil, err
	}
	return cli.NewExecutor(opts)
}

// gatewayAccess is what a gateway command needs from the session.
type gatewayAccess int

const (
	// readAccess needs any valid session.
	readAccess gatewayAccess = iota
	// adminAccess also needs the ADMIN role; create, update and delete use it.
	adminAccess
)

// gatewayFunc performs one gateway call. exec is the executor running it,
// for notices that are not part of the result.
type gatewayFunc func(ctx context.Context, gw *gateway.Client, exec *cli.Executor) (cli.Renderable, error)

// gatewayCall runs call against the gateway. Without a valid session, or
// without the ADMIN role when access demands it, the call is refused
// locally, before any request is made.
func (rt *runtime) gatewayCall(ctx context.Context, operation string, access gatewayAccess, call gatewayFunc) error {
	svc, err := rt.services()
	if err != nil {
		return err
	}
	status := svc.Inspector.Status()
	if !status.Authenticated {
		return &cli.AuthRequiredError{Endpoint: svc.Settings.Gateway.URL}
	}
	if access == adminAccess && !session.IsAdmin(status.Identity) {
		return &cli.ForbiddenError{Operation: operation, User: usernameOf(status.Identity)}
	}

	exec, err := rt.executor(svc.Settings.Gateway.URL)
	if err != nil {
		return err
	}
	return exec.Execute(ctx, operation, func(ctx context.Context) (cli.Renderable, error) {
		return call(ctx, svc.Gateway, exec)
	})
}

// notFound names the missing resource when the gateway answers 404.
func notFound(kind string, id int64, err error) error {
	var apiErr *gateway.APIError
	if id > 0 && errors.As(err, &apiErr) && apiErr.IsNotFound() {
		return fmt.Errorf("%s %d not found: %w", kind, id, err)
	}
	return err
}

// printf writes progress output unless --quiet is set.
func (rt *runtime) printf(format string, args ...interface{}) {
	if !rt.flags.Quiet {
		fmt.Fprintf(rt.errOut, format, args...)
	}
}

// formatDuration renders d for humans, e.g. "5 minutes".
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiryWithDirection renders an expiry relative to now.
func formatExpiryWithDirection(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}
