package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ems/internal/cli"
	"ems/internal/gateway"
)

type departmentList []gateway.Department

func (l departmentList) Table() cli.Table {
	t := cli.Table{Headers: []string{"ID", "Name", "Location"}}
	for _, d := range l {
		t.Rows = append(t.Rows, []string{strconv.FormatInt(d.ID, 10), d.Name, d.Location})
	}
	return t
}

type departmentItem gateway.Department

func (d departmentItem) Table() cli.Table {
	return departmentList{gateway.Department(d)}.Table()
}

// parseID parses a resource ID argument.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q: must be a positive integer", kind, arg)
	}
	return id, nil
}

func newDepartmentsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"department", "dept"},
		Short:   "Manage departments",
		Long: `List, show, create, update and delete departments.

Reading departments requires a session. Changing them requires the ADMIN role.

Examples:
  ems departments list
  ems departments get 3 -o json
  ems departments create --name Engineering --location Berlin
  ems departments delete 3`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List departments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.gatewayCall(cmd.Context(), "Listing departments", readAccess, func(ctx context.Context, gw *gateway.Client, _ *cli.Executor) (cli.Renderable, error) {
				departments, err := gw.Departments.List(ctx)
				if err != nil {
					return nil, err
				}
				return departmentList(departments), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("department", args[0])
			if err != nil {
				return err
			}
			return rt.gatewayCall(cmd.Context(), "Fetching department", readAccess, func(ctx context.Context, gw *gateway.Client, _ *cli.Executor) (cli.Renderable, error) {
				department, err := gw.Departments.Get(ctx, id)
				if err != nil {
					return nil, notFound("department", id, err)
				}
				return departmentItem(*department), nil
			})
		},
	})

	cmd.AddCommand(newDepartmentWriteCmd(rt, false))
	cmd.AddCommand(newDepartmentWriteCmd(rt, true))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("department", args[0])
			if err != nil {
				return err
			}
			return rt.gatewayCall(cmd.Context(), "Deleting department", adminAccess, func(ctx context.Context, gw *gateway.Client, exec *cli.Executor) (cli.Renderable, error) {
				if err := gw.Departments.Delete(ctx, id); err != nil {
					return nil, notFound("department", id, err)
				}
				exec.Notify("%s", cli.FormatSuccess(fmt.Sprintf("Department %d deleted", id)))
				return nil, nil
			})
		},
	})

	return cmd
}

// newDepartmentWriteCmd creates "create" or, when update is set, "update <id>".
func newDepartmentWriteCmd(rt *runtime, update bool) *cobra.Command {
	var req gateway.DepartmentRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" {
				return fmt.Errorf("--name is required")
			}
			var id int64
			operation := "Creating department"
			if update {
				var err error
				if id, err = parseID("department", args[0]); err != nil {
					return err
				}
				operation = "Updating department"
			}

			return rt.gatewayCall(cmd.Context(), operation, adminAccess, func(ctx context.Context, gw *gateway.Client, _ *cli.Executor) (cli.Renderable, error) {
				var (
					department *gateway.Department
					err        error
				)
				if update {
					department, err = gw.Departments.Update(ctx, id, req)
				} else {
					department, err = gw.Departments.Create(ctx, req)
				}
				if err != nil {
					return nil, notFound("department", id, err)
				}
				return departmentItem(*department), nil
			})
		},
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Replace a department"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Department name")
	cmd.Flags().StringVar(&req.Location, "location", "", "Department location")
	return cmd
}
