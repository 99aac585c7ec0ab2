package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/handiism/media-organizer/internal/model"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the category and metadata extracted from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			org, err := ctx.newOrganizer(cmd, settings, nil)
			if err != nil {
				return err
			}

			rec, err := org.Inspect(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File: %s\n", filepath.Base(rec.Path))
			fmt.Fprintf(out, "Type: %s\n", rec.Category)
			if rec.Err != nil {
				fmt.Fprintf(out, "Metadata: unavailable (%v)\n", rec.Err)
			}

			rows := make([][]string, 0)
			for _, name := range rec.Fields.Names() {
				rows = append(rows, []string{name, rec.Fields[name]})
			}
			common := rec.Common()
			for _, name := range model.CommonFieldNames {
				rows = append(rows, []string{name, common[name]})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
