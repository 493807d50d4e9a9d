package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"projectdesk/internal/apiclient"
	"projectdesk/internal/app"
)

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Inspect the backend audit log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var q apiclient.EventQuery
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent mutations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				evts, err := a.Client.ListEvents(ctx, q)
				if err != nil {
					return err
				}
				return printJSONOrTable(evts, func(tw table.Writer) {
					tw.AppendHeader(table.Row{"#", "Time", "Type", "Entity", "Project", "Payload"})
					for _, e := range evts {
						payload, _ := json.Marshal(e.Payload)
						tw.AppendRow(table.Row{e.ID, e.TS, e.Type, fmt.Sprintf("%s/%s", e.EntityKind, e.EntityID), e.ProjectID, string(payload)})
					}
				})
			})
		},
	}
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 20, "number of events")
	cmd.Flags().StringVar(&q.Type, "type", "", "event type, e.g. task.updated")
	cmd.Flags().StringVar(&q.EntityKind, "kind", "", "employee, project or task")
	cmd.Flags().StringVar(&q.EntityID, "entity", "", "entity id")
	cmd.Flags().StringVar(&q.ProjectID, "project", "", "project id")
	return cmd
}
