// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/plugsort/plugsort/internal/config"
	"github.com/plugsort/plugsort/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `plugsort config` command tree.
func newConfigCommand(app *App, g *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage plugsort configuration",
		Long: `Manage plugsort configuration.

Configuration is read from config.cue in the user config directory:
  - Linux: ~/.config/plugsort/config.cue
  - macOS: ~/Library/Application Support/plugsort/config.cue
  - Windows: %AppData%\plugsort\config.cue

PLUGSORT_* environment variables override file values, e.g.
PLUGSORT_GAME_PATH or PLUGSORT_LANES.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd.Context(), g)
			if err != nil {
				return app.fail(err, g)
			}
			source := "(defaults)"
			if loaded.Path != "" {
				source = loaded.Path
			}
			fmt.Fprintf(app.stdout, "// source: %s\n", source)
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := ""
			if g.configPath != "" {
				dir = filepath.Dir(g.configPath)
			}
			path, err := config.CreateDefaultConfig(app.Fs, dir)
			if err != nil {
				return app.fail(issue.WrapWithContext(err, "create configuration", dir), g)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the default configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return app.fail(err, g)
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}
