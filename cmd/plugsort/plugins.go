// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

func newPluginsCommand(app *App, g *globalFlags) *cobra.Command {
	f := &gameFlags{}
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the installed plugins",
		Long: `List the plugins installed in the game's Data folder in the order they
were found, with their master flag, active state and declared masters. Full
loads also show each file's CRC-32.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.openGame(cmd, g, f)
			if err != nil {
				return app.fail(err, g)
			}
			renderPlugins(app.stdout, s.game.Plugins(), s.game.ArePluginsFullyLoaded())
			renderMessages(app.stdout, s.game.LoadDiagnostics(), nil)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
