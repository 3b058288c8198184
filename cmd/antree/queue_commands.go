package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/silogos/Antree-sub001/internal/api"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage queues and their sessions",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueCreateCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueSessionsCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			queues, err := client.ListQueues(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(queues))
			for _, q := range queues {
				rows = append(rows, []string{
					q.ID,
					q.Name,
					strconv.FormatBool(q.IsActive),
					q.TemplateID,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Active", "Template"}, rows))
			return nil
		},
	}
}

func newQueueCreateCommand(ctx *commandContext) *cobra.Command {
	var templateID string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a queue bound to a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			q, err := client.CreateQueue(cmd.Context(), api.CreateQueueRequest{
				Name:       args[0],
				TemplateID: templateID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created queue %s (%s)\n", q.Name, q.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id the queue clones on each reset")
	cmd.MarkFlagRequired("template")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <queue-id>",
		Short: "Close the active session and open a fresh one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			res, err := client.ResetQueue(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Previous != nil {
				fmt.Fprintf(out, "Closed %s (%s)\n", res.Previous.Name, res.Previous.State)
			}
			fmt.Fprintf(out, "Opened %s (%s) with %d statuses\n", res.Session.Name, res.Session.ID, len(res.Statuses))
			return nil
		},
	}
}

func newQueueSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <queue-id>",
		Short: "List a queue's sessions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sessions, err := client.ListSessions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(sessions))
			for _, sess := range sessions {
				rows = append(rows, []string{
					sess.ID,
					sess.Name,
					sess.State,
					sess.StartedAt,
					sess.EndedAt,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "State", "Started", "Ended"}, rows))
			return nil
		},
	}
}
