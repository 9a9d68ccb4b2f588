// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the plugsort command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "plugsort",
		Short: "Sort game plugins into a working load order",
		Long: TitleStyle.Render("plugsort") + SubtitleStyle.Render(" - load order sorting for Bethesda game plugins") + `

plugsort reads the plugins installed in a game's Data folder, combines the
masters they declare with curated and user metadata, and computes a load
order that satisfies every hard constraint.

` + SubtitleStyle.Render("Examples:") + `
  plugsort sort --game tes5 --game-path ~/Games/Skyrim
  plugsort sort --apply               Sort and write loadorder.txt
  plugsort plugins                    List the installed plugins
  plugsort config show                Show the effective configuration`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default is config.cue in the user config directory)")

	root.AddCommand(newSortCommand(app, g))
	root.AddCommand(newPluginsCommand(app, g))
	root.AddCommand(newConfigCommand(app, g))

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command line and exits with the code of the failure, if
// any. It is called by main.main.
func Execute() {
	root := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
