package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handiism/media-organizer/internal/config"
	"github.com/handiism/media-organizer/internal/model"
	"github.com/handiism/media-organizer/internal/registry"
)

func newExtensionsCommand(ctx *commandContext) *cobra.Command {
	extCmd := &cobra.Command{
		Use:     "extensions",
		Aliases: []string{"ext"},
		Short:   "List and edit the extension to media type table",
	}

	extCmd.AddCommand(&cobra.Command{
		Use:   "list [type]",
		Short: "List registered extensions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := loadRegistry(ctx)
			if err != nil {
				return err
			}

			categories := model.Categories
			if len(args) == 1 {
				c, err := parseMediaType(args[0])
				if err != nil {
					return err
				}
				categories = []model.Category{c}
			}

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, []string{c.String(), strings.Join(reg.ExtensionsFor(c), " ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Type", "Extensions"}, rows, nil))
			return nil
		},
	})

	extCmd.AddCommand(&cobra.Command{
		Use:   "add <type> <ext>...",
		Short: "Register extensions for a media type",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRegistry(cmd, ctx, args, func(reg *registry.Registry, c model.Category, ext string) error {
				return reg.Add(c, ext)
			})
		},
	})

	extCmd.AddCommand(&cobra.Command{
		Use:   "remove <type> <ext>...",
		Short: "Unregister extensions from a media type",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editRegistry(cmd, ctx, args, func(reg *registry.Registry, c model.Category, ext string) error {
				if !reg.Remove(c, ext) {
					return fmt.Errorf("%s is not registered for %s", ext, c)
				}
				return nil
			})
		},
	})

	return extCmd
}

func loadRegistry(ctx *commandContext) (*registry.Registry, *config.Settings, error) {
	settings, err := ctx.ensureSettings()
	if err != nil {
		return nil, nil, err
	}
	reg, err := settings.Registry()
	if err != nil {
		return nil, nil, fmt.Errorf("extensions: %w", err)
	}
	return reg, settings, nil
}

// editRegistry applies edit to every extension in args[1:] and saves the
// table. Nothing is saved when any edit fails.
func editRegistry(cmd *cobra.Command, ctx *commandContext, args []string,
	edit func(*registry.Registry, model.Category, string) error) error {
	c, err := parseMediaType(args[0])
	if err != nil {
		return err
	}
	reg, settings, err := loadRegistry(ctx)
	if err != nil {
		return err
	}

	for _, ext := range args[1:] {
		if err := edit(reg, c, ext); err != nil {
			return err
		}
	}

	settings.Extensions = reg.Snapshot()
	if err := settings.Save(ctx.configPath()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c, strings.Join(reg.ExtensionsFor(c), " "))
	return nil
}

func parseMediaType(name string) (model.Category, error) {
	c, err := model.ParseCategory(name)
	if err != nil {
		return c, err
	}
	if c == model.CategoryUnknown {
		return c, fmt.Errorf("the unknown type has no extensions")
	}
	return c, nil
}
