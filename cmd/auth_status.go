package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"ems/internal/app"
	"ems/internal/cli"
	"ems/internal/config"
	"ems/internal/session"
)

// statusView is the machine-readable form of auth status.
type statusView struct {
	Issuer        string     `json:"issuer"`
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	Email         string     `json:"email,omitempty"`
	Roles         []string   `json:"roles,omitempty"`
	Admin         bool       `json:"admin"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Storage       string     `json:"storage"`
}

func (v statusView) Table() cli.Table {
	expires := "-"
	if v.ExpiresAt != nil {
		expires = v.ExpiresAt.Format(time.RFC3339)
	}
	return cli.Table{
		Headers: []string{"Issuer", "Authenticated", "Username", "Admin", "Expires"},
		Rows: [][]string{{
			v.Issuer,
			strconv.FormatBool(v.Authenticated),
			v.Username,
			strconv.FormatBool(v.Admin),
			expires,
		}},
	}
}

func newStatusView(svc *app.Services, status session.Status) statusView {
	v := statusView{
		Issuer:        svc.Provider.Issuer,
		Authenticated: status.Authenticated,
		Admin:         status.Admin,
		Storage:       storageDescription(svc),
	}
	if status.Identity != nil {
		v.Username = status.Identity.Username
		v.Email = status.Identity.Email
		v.Roles = status.Identity.Roles
	}
	if !status.ExpiresAt.IsZero() {
		expiresAt := status.ExpiresAt
		v.ExpiresAt = &expiresAt
	}
	return v
}

func newAuthStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show whether you are signed in, as whom, with which roles, and when the
session expires. The session is read locally; no network call is made.

Examples:
  ems auth status
  ems auth status -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.services()
			if err != nil {
				return err
			}
			exec, err := rt.executor(svc.Provider.Issuer)
			if err != nil {
				return err
			}

			status := svc.Inspector.Status()
			if exec.Printer().Format() != cli.OutputFormatTable {
				return exec.Printer().Print(newStatusView(svc, status))
			}
			printStatus(cmd.OutOrStdout(), svc, status, time.Now())
			return nil
		},
	}
}

// printStatus writes the human readable session summary.
func printStatus(w io.Writer, svc *app.Services, status session.Status, now time.Time) {
	fmt.Fprintln(w, "Identity Provider")
	fmt.Fprintf(w, "  Issuer:    %s\n", svc.Provider.Issuer)

	if !status.Authenticated {
		if expired := storedExpiry(svc.Repository); !expired.IsZero() {
			fmt.Fprintf(w, "  Status:    %s\n", text.FgYellow.Sprint("Session expired"))
			fmt.Fprintf(w, "  Expired:   %s\n", formatExpiryWithDirection(expired, now))
		} else {
			fmt.Fprintf(w, "  Status:    %s\n", text.FgYellow.Sprint("Not signed in"))
		}
		fmt.Fprintln(w, "             Run: ems auth login")
		fmt.Fprintf(w, "  Storage:   %s\n", storageDescription(svc))
		return
	}

	fmt.Fprintf(w, "  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
	if status.Identity != nil {
		fmt.Fprintf(w, "  User:      %s\n", usernameOf(status.Identity))
		if status.Identity.Email != "" {
			fmt.Fprintf(w, "  Email:     %s\n", status.Identity.Email)
		}
		fmt.Fprintf(w, "  Roles:     %s\n", formatRoles(status.Identity.Roles))
	}
	if status.Admin {
		fmt.Fprintf(w, "  Admin:     %s\n", text.FgGreen.Sprint("yes"))
	} else {
		fmt.Fprintln(w, "  Admin:     no")
	}
	if !status.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "  Expires:   %s\n", formatExpiryWithDirection(status.ExpiresAt, now))
	}
	fmt.Fprintf(w, "  Storage:   %s\n", storageDescription(svc))
}

// storedExpiry returns the expiry of a stored but no longer valid access
// token, or the zero time.
func storedExpiry(repo *session.Repository) time.Time {
	token, err := repo.AccessToken()
	if err != nil || token == "" {
		return time.Time{}
	}
	claims, err := session.DecodeClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func storageDescription(svc *app.Services) string {
	if svc.SessionFile != "" {
		return svc.SessionFile
	}
	if svc.Settings.Session.Storage == config.StorageKeyring {
		return "keyring (" + svc.Settings.Session.KeyringService + ")"
	}
	return svc.Settings.Session.Storage
}
