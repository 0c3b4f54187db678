package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ems/internal/auth"
	"ems/internal/cli"
	"ems/internal/session"
)

// newAuthCmd creates the auth command group.
func newAuthCmd(rt *runtime) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your ems session",
		Long: `Sign in to and out of the identity provider and inspect the current session.

Examples:
  ems auth login                       # Sign in through the browser
  ems auth login --no-browser          # Print the sign-in URL instead
  ems auth status                      # Show the current session
  ems auth whoami                      # Print the signed-in username
  ems auth logout                      # Sign out here and at the provider`,
	}

	authCmd.AddCommand(newAuthLoginCmd(rt))
	authCmd.AddCommand(newAuthLogoutCmd(rt))
	authCmd.AddCommand(newAuthStatusCmd(rt))
	authCmd.AddCommand(newAuthWhoamiCmd(rt))
	return authCmd
}

func newAuthLogoutCmd(rt *runtime) *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Long: `Destroy the local session and end the session at the identity provider.

The local session is always removed, even when the provider cannot be reached.
With --no-browser the provider logout URL is printed instead of opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.services()
			if err != nil {
				return err
			}

			logoutURL, err := svc.Flow.Logout(cmd.Context(), auth.LogoutOptions{NoBrowser: noBrowser})
			if err != nil {
				return cli.TranslateError(err, svc.Provider.Issuer, "")
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out."))
			if noBrowser && logoutURL != "" {
				rt.printf("To end the provider session, open:\n  %s\n", logoutURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the provider logout URL instead of opening it")
	return cmd
}

func newAuthWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		Long: `Print the username of the current session.

Exits with code 2 when nobody is signed in or the session has expired.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.services()
			if err != nil {
				return err
			}

			status := svc.Inspector.Status()
			if !status.Authenticated {
				return &cli.AuthRequiredError{Endpoint: svc.Provider.Issuer}
			}
			fmt.Fprintln(cmd.OutOrStdout(), usernameOf(status.Identity))
			return nil
		},
	}
}

// usernameOf returns the display name of identity.
func usernameOf(identity *session.Identity) string {
	if identity == nil || identity.Username == "" {
		return "unknown"
	}
	return identity.Username
}

// formatRoles joins roles for display.
func formatRoles(roles []string) string {
	if len(roles) == 0 {
		return "-"
	}
	return strings.Join(roles, ", ")
}
