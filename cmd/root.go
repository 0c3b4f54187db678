package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ems/internal/cli"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates there is no session or it has expired.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the login flow failed.
	ExitCodeAuthFailed = 3
)

// version is injected by main at build time.
var version = "dev"

// SetVersion sets the version reported by ems.
func SetVersion(v string) {
	version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// newRootCmd builds the command tree. Every tree shares rt, so commands
// run from the shell reuse one set of services.
func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ems",
		Short: "Manage departments and employees",
		Long: `ems manages the departments and employees of the company directory.

Sign in once with 'ems auth login'; the session is shared by every ems
command and by the interactive shell until it expires or you sign out.`,
		Version: version,
		// Errors are printed by Execute or by the shell.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "ems version %s\n" .Version}}`)
	rootCmd.SetOut(rt.out)
	rootCmd.SetErr(rt.errOut)

	cli.RegisterCommonFlags(rootCmd, &rt.flags)

	rootCmd.AddCommand(newAuthCmd(rt))
	rootCmd.AddCommand(newDepartmentsCmd(rt))
	rootCmd.AddCommand(newEmployeesCmd(rt))
	rootCmd.AddCommand(newShellCmd(rt))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	return rootCmd
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(os.Stdout, os.Stderr)
	err := newRootCmd(rt).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		stop()
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}
