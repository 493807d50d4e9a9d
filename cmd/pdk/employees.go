package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"projectdesk/internal/app"
	"projectdesk/internal/domain"
	"projectdesk/internal/store"
)

func employeeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "employee", Aliases: []string{"employees", "emp"}, Short: "Manage employees"}
	cmd.AddCommand(employeeListCmd())
	cmd.AddCommand(employeeShowCmd())
	cmd.AddCommand(employeeAddCmd())
	cmd.AddCommand(employeeUpdateCmd())
	cmd.AddCommand(employeeDeleteCmd())
	cmd.AddCommand(employeeByProjectCmd())
	return cmd
}

func renderEmployees(items []domain.Employee) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"ID", "Name", "Email", "Projects"})
		for _, e := range items {
			tw.AppendRow(table.Row{e.ID, e.Nombre, e.Correo, strings.Join(e.ProyectosAsignados, ", ")})
		}
	}
}

// loadEmployees fetches the collection and surfaces a recorded fetch error.
func loadEmployees(ctx context.Context, s *store.EmployeeStore) (store.EmployeeState, error) {
	s.FetchEmployees(ctx)
	st := s.State()
	if st.Error != "" {
		return st, errors.New(st.Error)
	}
	return st, nil
}

func employeeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				st, err := loadEmployees(ctx, a.Employees)
				if err != nil {
					return err
				}
				return printJSONOrTable(st.Employees, renderEmployees(st.Employees))
			})
		},
	}
}

func employeeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				e := a.Employees.FetchEmployeeByID(ctx, args[0])
				if e == nil {
					return errors.New(a.Employees.State().Error)
				}
				return printJSONOrTable(e, renderEmployees([]domain.Employee{*e}))
			})
		},
	}
}

type employeeFlags struct {
	nombre   string
	correo   string
	projects []string
}

func (f *employeeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nombre, "nombre", "", "full name")
	cmd.Flags().StringVar(&f.correo, "correo", "", "email address")
	cmd.Flags().StringSliceVar(&f.projects, "proyecto", nil, "assigned project id (repeatable)")
}

// patch includes only the flags the user actually set.
func (f *employeeFlags) patch(cmd *cobra.Command) domain.EmployeePatch {
	var p domain.EmployeePatch
	if cmd.Flags().Changed("nombre") {
		p.Nombre = domain.StringPtr(f.nombre)
	}
	if cmd.Flags().Changed("correo") {
		p.Correo = domain.StringPtr(f.correo)
	}
	if cmd.Flags().Changed("proyecto") {
		ids := append([]string{}, f.projects...)
		p.ProyectosAsignados = &ids
	}
	return p
}

func employeeAddCmd() *cobra.Command {
	var f employeeFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				created, err := a.Employees.AddEmployee(ctx, domain.Employee{
					Nombre:             f.nombre,
					Correo:             f.correo,
					ProyectosAsignados: f.projects,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(created, renderEmployees([]domain.Employee{created}))
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("nombre")
	return cmd
}

func employeeUpdateCmd() *cobra.Command {
	var f employeeFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update employee fields; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd)
			if patch.Empty() {
				return fmt.Errorf("nothing to update; pass --nombre, --correo or --proyecto")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				updated, err := a.Employees.UpdateEmployee(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printJSONOrTable(updated, renderEmployees([]domain.Employee{updated}))
			})
		},
	}
	f.register(cmd)
	return cmd
}

func employeeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Employees.ConfirmDelete(args[0])
				if !confirm(fmt.Sprintf("Delete employee %s?", args[0])) {
					a.Employees.CancelDelete()
					fmt.Fprintln(out, "cancelled")
					return nil
				}
				id, ok := a.Employees.PendingDelete()
				if !ok {
					return nil
				}
				if err := a.Employees.DeleteEmployee(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted employee %s\n", id)
				return nil
			})
		},
	}
}

func employeeByProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "by-project <project-id>",
		Short: "List employees assigned to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if _, err := loadEmployees(ctx, a.Employees); err != nil {
					return err
				}
				items := a.Employees.GetEmployeesByProject(args[0])
				return printJSONOrTable(items, renderEmployees(items))
			})
		},
	}
}
