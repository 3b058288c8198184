package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/silogos/Antree-sub001/internal/api"
)

func newTemplateCommand(ctx *commandContext) *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Manage status pipeline templates",
	}

	templateCmd.AddCommand(newTemplateListCommand(ctx))
	templateCmd.AddCommand(newTemplateCreateCommand(ctx))

	return templateCmd
}

func newTemplateListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			templates, err := client.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(templates))
			for _, tpl := range templates {
				labels := make([]string, 0, len(tpl.Statuses))
				for _, st := range tpl.Statuses {
					labels = append(labels, st.Label)
				}
				rows = append(rows, []string{
					tpl.ID,
					tpl.Name,
					strconv.FormatBool(tpl.IsActive),
					strings.Join(labels, " > "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Active", "Pipeline"}, rows))
			return nil
		},
	}
}

func newTemplateCreateCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a template with ordered statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			req := api.CreateTemplateRequest{Name: args[0]}
			for _, label := range statuses {
				req.Statuses = append(req.Statuses, api.CreateTemplateStatusRequest{Label: label})
			}
			tpl, err := client.CreateTemplate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s (%s) with %d statuses\n", tpl.Name, tpl.ID, len(tpl.Statuses))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Status label, repeatable, in pipeline order")
	return cmd
}
