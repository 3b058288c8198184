package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show daemon health and storage diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s (pid %d)\n", health.Status, health.PID)
			fmt.Fprintf(out, "Subscribers: %d across %d topics\n", health.Connections, len(health.Topics))

			rows := [][]string{
				{"Templates", strconv.Itoa(health.Counts.Templates)},
				{"Queues", strconv.Itoa(health.Counts.Queues)},
				{"Active sessions", strconv.Itoa(health.Counts.ActiveSessions)},
				{"Items", strconv.Itoa(health.Counts.Items)},
			}
			fmt.Fprintln(out, renderTable([]string{"Entity", "Count"}, rows))

			db := health.Database
			fmt.Fprintf(out, "Database: %s\n", db.DBPath)
			if !db.IntegrityCheck {
				fmt.Fprintln(out, "WARNING: integrity check failed")
			}
			for _, missing := range db.MissingTables {
				fmt.Fprintf(out, "WARNING: missing table %s\n", missing)
			}
			if db.Error != "" {
				fmt.Fprintf(out, "WARNING: %s\n", db.Error)
			}

			req := health.Requests
			if req.Samples > 0 {
				fmt.Fprintf(out, "Requests: %d samples, avg %.1fms, p95 %.1fms, errors %.1f%%\n",
					req.Samples, req.AvgLatencyMS, req.P95MS, req.ErrorRate*100)
			}
			return nil
		},
	}
}
