package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"projectdesk/internal/app"
	"projectdesk/internal/dates"
	"projectdesk/internal/domain"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Aliases: []string{"tasks"}, Short: "Manage the tasks of a project"}
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskUpdateCmd())
	cmd.AddCommand(taskDeleteCmd())
	return cmd
}

func renderTasks(items []domain.Task, now time.Time) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"ID", "Title", "Assigned", "Due", "Status", "Late"})
		for _, t := range items {
			late := ""
			if t.Estado != domain.StatusCompleted && dates.IsPast(t.FechaLimite, now) {
				late = fmt.Sprintf("%dd", dates.DelayDays(t.FechaLimite, now))
			}
			tw.AppendRow(table.Row{t.ID, t.Titulo, dates.Format(t.FechaAsignada), dates.Format(t.FechaLimite), t.Estado, late})
		}
	}
}

func parseStatus(v string) (domain.TaskStatus, error) {
	s, ok := domain.ParseTaskStatus(v)
	if !ok {
		return 0, fmt.Errorf("invalid --estado %q; use pending, in_progress, completed, delayed or 0-3", v)
	}
	return s, nil
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := loadProjects(ctx, a.Projects); err != nil {
					return err
				}
				tasks, err := a.Projects.FetchTasks(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(tasks, renderTasks(tasks, time.Now()))
			})
		},
	}
}

type taskFlags struct {
	titulo      string
	descripcion string
	asignada    string
	limite      string
	estado      string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.titulo, "titulo", "", "task title")
	cmd.Flags().StringVar(&f.descripcion, "descripcion", "", "description")
	cmd.Flags().StringVar(&f.asignada, "asignada", "", "assignment date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.limite, "limite", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.estado, "estado", "pending", "status: pending, in_progress, completed, delayed")
}

func (f *taskFlags) patch(cmd *cobra.Command) (domain.TaskPatch, error) {
	var p domain.TaskPatch
	set := cmd.Flags().Changed
	if set("titulo") {
		p.Titulo = domain.StringPtr(f.titulo)
	}
	if set("descripcion") {
		p.Descripcion = domain.StringPtr(f.descripcion)
	}
	if set("asignada") {
		p.FechaAsignada = domain.StringPtr(dates.FormatForInput(f.asignada))
	}
	if set("limite") {
		p.FechaLimite = domain.StringPtr(dates.FormatForInput(f.limite))
	}
	if set("estado") {
		s, err := parseStatus(f.estado)
		if err != nil {
			return p, err
		}
		p.Estado = domain.StatusPtr(s)
	}
	return p, nil
}

func taskAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseStatus(f.estado)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := loadProjects(ctx, a.Projects); err != nil {
					return err
				}
				created, err := a.Projects.AddTask(ctx, args[0], domain.Task{
					Titulo:        f.titulo,
					Descripcion:   f.descripcion,
					FechaAsignada: dates.FormatForInput(f.asignada),
					FechaLimite:   dates.FormatForInput(f.limite),
					Estado:        status,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(created, renderTasks([]domain.Task{created}, time.Now()))
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("titulo")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <project-id> <task-id>",
		Short: "Update task fields; unset flags keep their value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := f.patch(cmd)
			if err != nil {
				return err
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := loadProjects(ctx, a.Projects); err != nil {
					return err
				}
				updated, err := a.Projects.UpdateTask(ctx, args[0], args[1], patch)
				if err != nil {
					return err
				}
				return printJSONOrTable(updated, renderTasks([]domain.Task{updated}, time.Now()))
			})
		},
	}
	f.register(cmd)
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id> <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(fmt.Sprintf("Delete task %s?", args[1])) {
				fmt.Fprintln(out, "cancelled")
				return nil
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := loadProjects(ctx, a.Projects); err != nil {
					return err
				}
				if err := a.Projects.DeleteTask(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted task %s\n", args[1])
				return nil
			})
		},
	}
}
