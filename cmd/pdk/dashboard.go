package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"projectdesk/internal/app"
	"projectdesk/internal/dates"
	"projectdesk/internal/domain"
	"projectdesk/internal/store"
)

// dashboard figures always cover every project; the filtered section only
// appears when a date filter is given.
type dashboard struct {
	Projects   int                   `json:"projects"`
	Statistics domain.TaskStatistics `json:"statistics"`
	Delayed    []domain.DelayedTask  `json:"delayed"`
	Upcoming   []domain.UpcomingTask `json:"upcoming"`
	Filtered   *filteredView         `json:"filtered,omitempty"`
}

type filteredView struct {
	Filter     domain.DateRange      `json:"filter"`
	Projects   int                   `json:"projects"`
	Statistics domain.TaskStatistics `json:"statistics"`
}

func dashboardCmd() *cobra.Command {
	var (
		filter   dateFilterFlags
		upcoming int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Task statistics, delayed and upcoming tasks across projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := filter.apply(ctx, a.Projects); err != nil {
					return err
				}
				now := time.Now()
				st := a.Projects.State()
				d := dashboard{
					Projects:   len(st.Projects),
					Statistics: store.ComputeTaskStatistics(st.Projects, now),
					Delayed:    store.DelayedTasks(st.Projects, now),
					Upcoming:   store.UpcomingTasks(st.Projects, now, upcoming),
				}
				if st.DateFilter != nil {
					projects := store.FilteredProjects(st.Projects, st.DateFilter)
					d.Filtered = &filteredView{
						Filter:     *st.DateFilter,
						Projects:   len(projects),
						Statistics: store.ComputeTaskStatistics(projects, now),
					}
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				return printDashboard(d)
			})
		},
	}
	filter.register(cmd)
	cmd.Flags().IntVar(&upcoming, "upcoming", 7, "list open tasks due within this many days")
	return cmd
}

func renderStatistics(s domain.TaskStatistics) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"Total", "Completed", "In progress", "Pending", "Delayed", "Completion", "Delay rate"})
		tw.AppendRow(table.Row{s.Total, s.Completed, s.InProgress, s.Pending, s.Delayed,
			fmt.Sprintf("%.1f%%", s.CompletionRate), fmt.Sprintf("%.1f%%", s.DelayRate)})
	}
}

func printDashboard(d dashboard) error {
	fmt.Fprintf(out, "All projects: %d\n", d.Projects)
	if err := printJSONOrTable(d.Statistics, renderStatistics(d.Statistics)); err != nil {
		return err
	}
	if f := d.Filtered; f != nil {
		fmt.Fprintf(out, "Projects between %s and %s: %d\n", dates.Format(f.Filter.StartDate), dates.Format(f.Filter.EndDate), f.Projects)
		if err := printJSONOrTable(f.Statistics, renderStatistics(f.Statistics)); err != nil {
			return err
		}
	}
	if len(d.Delayed) == 0 {
		fmt.Fprintln(out, "No delayed tasks.")
	} else if err := printJSONOrTable(d.Delayed, func(tw table.Writer) {
		tw.AppendHeader(table.Row{"Project", "Task", "Due", "Days late"})
		for _, dt := range d.Delayed {
			tw.AppendRow(table.Row{dt.ProjectName, dt.Task.Titulo, dates.Format(dt.Task.FechaLimite), dt.Delay})
		}
	}); err != nil {
		return err
	}
	if len(d.Upcoming) == 0 {
		return nil
	}
	return printJSONOrTable(d.Upcoming, func(tw table.Writer) {
		tw.AppendHeader(table.Row{"Project", "Task", "Due", "Days left"})
		for _, u := range d.Upcoming {
			tw.AppendRow(table.Row{u.ProjectName, u.Task.Titulo, dates.Format(u.Task.FechaLimite), u.DaysLeft})
		}
	})
}
