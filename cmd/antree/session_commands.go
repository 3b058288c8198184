package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect sessions and their tickets",
	}

	sessionCmd.AddCommand(newSessionItemsCommand(ctx))
	sessionCmd.AddCommand(newSessionStatusesCommand(ctx))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "pause", "paused", "Pause an active session"))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "resume", "active", "Resume a paused session"))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "complete", "completed", "Close out a session"))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "archive", "archived", "Archive a finished session"))

	return sessionCmd
}

func newSessionTransitionCommand(ctx *commandContext, use, state, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sess, err := client.TransitionSession(cmd.Context(), args[0], state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s (%q) is now %s.\n", sess.ID, sess.Name, sess.State)
			return nil
		},
	}
}

func newSessionItemsCommand(ctx *commandContext) *cobra.Command {
	var statusID string

	cmd := &cobra.Command{
		Use:   "items <session-id>",
		Short: "List a session's tickets in arrival order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			items, err := client.ListItems(cmd.Context(), args[0], statusID)
			if err != nil {
				return err
			}

			statuses, err := client.SessionStatuses(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			labels := make(map[string]string, len(statuses))
			for _, st := range statuses {
				labels[st.ID] = st.Label
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				label := labels[item.StatusID]
				if label == "" {
					label = item.StatusID
				}
				rows = append(rows, []string{item.Number, item.Name, label, item.CreatedAt})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Number", "Name", "Status", "Created"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusID, "status", "", "Only show tickets in this status id")
	return cmd
}

func newSessionStatusesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses <session-id>",
		Short: "List a session's pipeline stages in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			statuses, err := client.SessionStatuses(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				rows = append(rows, []string{
					fmt.Sprintf("%d", st.Position),
					st.Label,
					st.Color,
					st.ID,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Label", "Color", "ID"}, rows))
			return nil
		},
	}
}
