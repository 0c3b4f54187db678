package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ems/internal/cli"
	"ems/internal/gateway"
)

type employeeList []gateway.Employee

func (l employeeList) Table() cli.Table {
	t := cli.Table{Headers: []string{"ID", "Name", "Position", "Department"}}
	for _, e := range l {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Position,
			departmentLabel(e),
		})
	}
	return t
}

type employeeItem gateway.Employee

func (e employeeItem) Table() cli.Table {
	return employeeList{gateway.Employee(e)}.Table()
}

// departmentLabel shows the department name when the gateway embedded it.
func departmentLabel(e gateway.Employee) string {
	if e.Department != nil && e.Department.Name != "" {
		return e.Department.Name
	}
	if e.DepartmentID == 0 {
		return "-"
	}
	return strconv.FormatInt(e.DepartmentID, 10)
}

func newEmployeesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "employees",
		Aliases: []string{"employee", "emp"},
		Short:   "Manage employees",
		Long: `List, show, create, update and delete employees.

Reading employees requires a session. Changing them requires the ADMIN role.

Examples:
  ems employees list --department-id 2
  ems employees list --name ali
  ems employees create --name Alice --position Engineer --department-id 2
  ems employees update 7 --name Alice --position Lead --department-id 2`,
	}

	cmd.AddCommand(newEmployeeListCmd(rt))

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("employee", args[0])
			if err != nil {
				return err
			}
			return rt.gatewayCall(cmd.Context(), "Fetching employee", readAccess, func(ctx context.Context, gw *gateway.Client, _ *cli.Executor) (cli.Renderable, error) {
				employee, err := gw.Employees.Get(ctx, id)
				if err != nil {
					return nil, notFound("employee", id, err)
				}
				return employeeItem(*employee), nil
			})
		},
	})

	cmd.AddCommand(newEmployeeWriteCmd(rt, false))
	cmd.AddCommand(newEmployeeWriteCmd(rt, true))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("employee", args[0])
			if err != nil {
				return err
			}
			return rt.gatewayCall(cmd.Context(), "Deleting employee", adminAccess, func(ctx context.Context, gw *gateway.Client, exec *cli.Executor) (cli.Renderable, error) {
				if err := gw.Employees.Delete(ctx, id); err != nil {
					return nil, notFound("employee", id, err)
				}
				exec.Notify("%s", cli.FormatSuccess(fmt.Sprintf("Employee %d deleted", id)))
				return nil, nil
			})
		},
	})

	return cmd
}

func newEmployeeListCmd(rt *runtime) *cobra.Command {
	var filter gateway.EmployeeFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.gatewayCall(cmd.Context(), "Listing employees", readAccess, func(ctx context.Context, gw *gateway.Client, _ *cli.Executor) (cli.Renderable, error) {
				employees, err := gw.Employees.List(ctx, filter)
				if err != nil {
					return nil, err
				}
				return employeeList(employees), nil
			})
		},
	}
	cmd.Flags().StringVar(&filter.Name, "name", "", "Only employees whose name contains this text")
	cmd.Flags().Int64Var(&filter.DepartmentID, "department-id", 0, "Only employees of this department")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "Page number (0-based)")
	cmd.Flags().IntVar(&filter.Size, "size", 0, "Page size")
	return cmd
}

// newEmployeeWriteCmd creates "create" or, when update is set, "update <id>".
func newEmployeeWriteCmd(rt *runtime, update bool) *cobra.Command {
	var req gateway.EmployeeRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" {
				return fmt.Errorf("--name is required")
			}
			if req.DepartmentID <= 0 {
				return fmt.Errorf("--department-id is required")
			}
			var id int64
			operation := "Creating employee"
			if update {
				var err error
				if id, err = parseID("employee", args[0]); err != nil {
					return err
				}
				operation = "Updating employee"
			}

			return rt.gatewayCall(cmd.Context(), operation, adminAccess, func(ctx context.Context, gw *gateway.Client, _ *cli.Executor) (cli.Renderable, error) {
				var (
					employee *gateway.Employee
					err      error
				)
				if update {
					employee, err = gw.Employees.Update(ctx, id, req)
				} else {
					employee, err = gw.Employees.Create(ctx, req)
				}
				if err != nil {
					return nil, notFound("employee", id, err)
				}
				return employeeItem(*employee), nil
			})
		},
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Replace an employee"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Employee name")
	cmd.Flags().StringVar(&req.Position, "position", "", "Job title")
	cmd.Flags().Int64Var(&req.DepartmentID, "department-id", 0, "Department the employee belongs to")
	return cmd
}
