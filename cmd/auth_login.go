package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ems/internal/auth"
	"ems/internal/cli"
)

func newAuthLoginCmd(rt *runtime) *cobra.Command {
	var (
		force     bool
		noBrowser bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser",
		Long: `Sign in with the OAuth2 authorization code flow (PKCE).

ems opens the identity provider in your browser and listens on the
application origin for the redirect. The login ends when the provider
redirects back, or when the timeout expires.

When a valid session already exists nothing happens unless --force is given,
which asks the provider for a fresh sign-in.

Examples:
  ems auth login
  ems auth login --no-browser          # Print the URL to open elsewhere
  ems auth login --force --timeout 2m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.services()
			if err != nil {
				return err
			}
			issuer := svc.Provider.Issuer

			exec, err := rt.executor(issuer)
			if err != nil {
				return err
			}

			if timeout <= 0 {
				timeout = svc.Settings.Login.Timeout
			}

			var stop func(string)
			result, err := svc.Flow.Login(cmd.Context(), auth.LoginOptions{
				Force:     force,
				NoBrowser: noBrowser,
				Timeout:   timeout,
				OnAuthURL: func(authURL string) {
					if noBrowser {
						fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL in your browser to sign in:\n  %s\n", authURL)
					} else {
						rt.printf("If your browser does not open, visit:\n  %s\n", authURL)
					}
					stop = exec.Spin("Waiting for the identity provider")
				},
			})
			if stop != nil {
				if err != nil {
					stop("")
				} else {
					stop(cli.FormatSuccess("Signed in"))
				}
			}
			if err != nil {
				return cli.TranslateError(err, issuer, "")
			}

			out := cmd.OutOrStdout()
			if result.AlreadyAuthenticated {
				fmt.Fprintf(out, "Already signed in as %s. Use --force to sign in again.\n", usernameOf(result.Identity))
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s.\n", usernameOf(result.Identity))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Sign in again even if a valid session exists")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the sign-in URL instead of opening a browser")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the browser (default from login.timeout)")
	return cmd
}
