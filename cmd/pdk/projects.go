package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"projectdesk/internal/app"
	"projectdesk/internal/dates"
	"projectdesk/internal/domain"
	"projectdesk/internal/store"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Aliases: []string{"projects", "proj"}, Short: "Manage projects"}
	cmd.AddCommand(projectListCmd())
	cmd.AddCommand(projectShowCmd())
	cmd.AddCommand(projectAddCmd())
	cmd.AddCommand(projectUpdateCmd())
	cmd.AddCommand(projectDeleteCmd())
	cmd.AddCommand(projectByEmployeeCmd())
	return cmd
}

func renderProjects(items []domain.Project) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"ID", "Name", "Start", "End", "Days", "Employees", "Tasks"})
		for _, p := range items {
			span := ""
			if d, ok := dates.DaysBetween(p.FechaInicio, p.FechaFin); ok {
				span = fmt.Sprint(d)
			}
			tw.AppendRow(table.Row{
				p.ID, p.Nombre, dates.Format(p.FechaInicio), dates.Format(p.FechaFin), span,
				strings.Join(p.EmpleadosAsignados, ", "), len(p.Tareas),
			})
		}
	}
}

// loadProjects fetches the collection and surfaces a recorded fetch error.
func loadProjects(ctx context.Context, s *store.ProjectStore) error {
	s.FetchProjects(ctx)
	if msg := s.State().Error; msg != "" {
		return errors.New(msg)
	}
	return nil
}

type dateFilterFlags struct {
	from string
	to   string
	last int
}

func (f *dateFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "only projects overlapping this start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "only projects overlapping this end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.last, "last", 0, "only projects overlapping the last N days")
}

// rangeAt turns the flags into a filter; nil means no filtering.
func (f *dateFilterFlags) rangeAt(now time.Time) (*domain.DateRange, error) {
	if f.last > 0 {
		if f.from != "" || f.to != "" {
			return nil, fmt.Errorf("--last cannot be combined with --from/--to")
		}
		return &domain.DateRange{StartDate: dates.DaysAgo(now, f.last), EndDate: dates.Today(now)}, nil
	}
	if f.from == "" && f.to == "" {
		return nil, nil
	}
	if f.from == "" || f.to == "" {
		return nil, fmt.Errorf("--from and --to must be given together")
	}
	for _, d := range []string{f.from, f.to} {
		if _, ok := dates.Parse(d); !ok {
			return nil, fmt.Errorf("invalid date %q", d)
		}
	}
	return &domain.DateRange{StartDate: f.from, EndDate: f.to}, nil
}

// apply loads projects and installs the filter on the store.
func (f *dateFilterFlags) apply(ctx context.Context, s *store.ProjectStore) error {
	r, err := f.rangeAt(time.Now())
	if err != nil {
		return err
	}
	if err := loadProjects(ctx, s); err != nil {
		return err
	}
	s.SetDateFilter(r)
	return nil
}

func projectListCmd() *cobra.Command {
	var filter dateFilterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, optionally filtered by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := filter.apply(ctx, a.Projects); err != nil {
					return err
				}
				items := a.Projects.FilteredProjects()
				return printJSONOrTable(items, renderProjects(items))
			})
		},
	}
	filter.register(cmd)
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p := a.Projects.FetchProjectByID(ctx, args[0])
				if p == nil {
					return errors.New(a.Projects.State().Error)
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}
				if err := printJSONOrTable(p, renderProjects([]domain.Project{*p})); err != nil {
					return err
				}
				if p.Descripcion != "" {
					fmt.Fprintln(out, p.Descripcion)
				}
				return printJSONOrTable(p.Tareas, renderTasks(p.Tareas, time.Now()))
			})
		},
	}
}

type projectFlags struct {
	nombre      string
	descripcion string
	inicio      string
	fin         string
	empleados   []string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nombre, "nombre", "", "project name")
	cmd.Flags().StringVar(&f.descripcion, "descripcion", "", "description")
	cmd.Flags().StringVar(&f.inicio, "inicio", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.fin, "fin", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.empleados, "empleado", nil, "assigned employee id (repeatable)")
}

func (f *projectFlags) patch(cmd *cobra.Command) domain.ProjectPatch {
	var p domain.ProjectPatch
	set := cmd.Flags().Changed
	if set("nombre") {
		p.Nombre = domain.StringPtr(f.nombre)
	}
	if set("descripcion") {
		p.Descripcion = domain.StringPtr(f.descripcion)
	}
	if set("inicio") {
		p.FechaInicio = domain.StringPtr(dates.FormatForInput(f.inicio))
	}
	if set("fin") {
		p.FechaFin = domain.StringPtr(dates.FormatForInput(f.fin))
	}
	if set("empleado") {
		ids := append([]string{}, f.empleados...)
		p.EmpleadosAsignados = &ids
	}
	return p
}

func projectAddCmd() *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				created, err := a.Projects.AddProject(ctx, domain.Project{
					Nombre:             f.nombre,
					Descripcion:        f.descripcion,
					FechaInicio:        dates.FormatForInput(f.inicio),
					FechaFin:           dates.FormatForInput(f.fin),
					EmpleadosAsignados: f.empleados,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(created, renderProjects([]domain.Project{created}))
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("nombre")
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update project fields; tasks are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd)
			if patch.Empty() {
				return fmt.Errorf("nothing to update")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				// The store merges into its local copy, so load it first.
				if err := loadProjects(ctx, a.Projects); err != nil {
					return err
				}
				updated, err := a.Projects.UpdateProject(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printJSONOrTable(updated, renderProjects([]domain.Project{updated}))
			})
		},
	}
	f.register(cmd)
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Projects.ConfirmDelete(args[0])
				if !confirm(fmt.Sprintf("Delete project %s and all of its tasks?", args[0])) {
					a.Projects.CancelDelete()
					fmt.Fprintln(out, "cancelled")
					return nil
				}
				id, ok := a.Projects.PendingDelete()
				if !ok {
					return nil
				}
				if err := a.Projects.DeleteProject(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted project %s\n", id)
				return nil
			})
		},
	}
}

func projectByEmployeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "by-employee <employee-id>",
		Short: "List projects an employee is assigned to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := loadProjects(ctx, a.Projects); err != nil {
					return err
				}
				items := a.Projects.GetProjectsByEmployee(args[0])
				return printJSONOrTable(items, renderProjects(items))
			})
		},
	}
}
