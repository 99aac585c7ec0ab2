package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/media-organizer/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Settings utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"source_path", s.SourcePath},
				{"output_path", s.OutputPath},
				{"operation_mode", s.OperationMode},
				{"enabled_types", strings.Join(s.EnabledTypes, ",")},
			}
			for _, name := range sortedKeys(s.Templates) {
				rows = append(rows, []string{"templates." + name, s.Templates[name]})
			}
			for _, name := range sortedKeys(s.ExcludeUnknown) {
				rows = append(rows, []string{"exclude_unknown." + name, yesNo(s.ExcludeUnknown[name])})
			}
			rows = append(rows,
				[]string{"unknown_template", s.UnknownTemplate},
				[]string{"create_playlists", yesNo(s.CreatePlaylists)},
				[]string{"playlist_format", s.PlaylistFormat},
				[]string{"m3u_extended", yesNo(s.M3UExtended)},
				[]string{"preview_limit", strconv.Itoa(s.PreviewLimit)},
				[]string{"preview_workers", strconv.Itoa(s.PreviewWorkers)},
				[]string{"ffprobe_path", s.FFprobePath},
				[]string{"logging_level", s.LoggingLevel},
				[]string{"log_file", s.LogFile},
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings file: %s\n", ctx.configPath())
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a settings file with the default values",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ctx.configPath()

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("settings file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check settings path: %w", err)
				}
			}

			if err := config.DefaultSettings().Save(target); err != nil {
				return fmt.Errorf("write settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote default settings to %s\n", target)
			fmt.Fprintln(out, "Set source_path (or pass --source) before running organize.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing settings if present")
	return cmd
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the settings file location",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), ctx.configPath())
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return fmt.Errorf("invalid settings:\n%w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings file: %s\n", ctx.configPath())
			if _, err := os.Stat(ctx.configPath()); os.IsNotExist(err) {
				fmt.Fprintln(out, "Settings file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Settings valid")
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
