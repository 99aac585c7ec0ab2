package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/media-organizer/internal/organize"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show where the first files would be placed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			settings, err := flags.apply(base)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = settings.PreviewLimit
			}

			org, err := ctx.newOrganizer(cmd, settings, nil)
			if err != nil {
				return err
			}
			plans, err := org.Preview(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No matching files found.")
				return nil
			}
			fmt.Fprintln(out, renderPlans(plans))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of files to preview (default from settings, 0 for all)")
	return cmd
}

func renderPlans(plans []organize.Plan) string {
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		dest := p.Destination
		if dest == "" {
			dest = "(unreadable)"
		}
		note := ""
		switch {
		case p.Err != nil && p.Destination == "":
			note = p.Err.Error()
		case p.Err != nil:
			note = "no metadata"
		case p.Suffix > 0:
			note = fmt.Sprintf("renamed (%d)", p.Suffix)
		}
		rows = append(rows, []string{p.Source, dest, p.Category.String(), note})
	}
	return renderTable([]string{"Source", "Destination", "Type", "Note"}, rows, nil)
}
