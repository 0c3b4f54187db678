package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ems/internal/shell"
)

func newShellCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive ems shell",
		Long: `Start an interactive shell that runs ems commands without the "ems" prefix.

The prompt shows who is signed in and updates as soon as the session changes,
including sign-ins and sign-outs made from other terminals. The auth commands
are also available without the "auth" prefix.

Examples:
  ems shell
  ems » login
  ems alice [ADMIN] » departments list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.services()
			if err != nil {
				return err
			}

			run := func(ctx context.Context, args []string) error {
				root := newRootCmd(rt)
				root.SetArgs(args)
				return root.ExecuteContext(ctx)
			}
			return shell.New(svc.NewWatcher(), run, shell.WithOutput(cmd.OutOrStdout())).Run(cmd.Context())
		},
	}
}
