// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/plugsort/plugsort/internal/dag"
	"github.com/plugsort/plugsort/internal/issue"
	"github.com/plugsort/plugsort/internal/loadorder"
	"github.com/plugsort/plugsort/internal/sorter"

	"github.com/spf13/cobra"
)

func newSortCommand(app *App, g *globalFlags) *cobra.Command {
	f := &gameFlags{}
	var apply bool

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Compute the load order of the installed plugins",
		Long: `Compute the load order of the installed plugins.

Masters always load before plugins, and every plugin loads after the masters
it declares, the plugins its metadata requires, and the plugins it is told
to load after. Priorities then order whatever those rules leave open. Ties
keep the current load order.

With --apply the result is written to loadorder.txt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runSort(cmd, app, g, f, apply); err != nil {
				return app.fail(err, g)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&apply, "apply", false, "write the sorted order to "+loadorder.LoadOrderFile)
	return cmd
}

func runSort(cmd *cobra.Command, app *App, g *globalFlags, f *gameFlags, apply bool) error {
	s, err := app.openGame(cmd, g, f)
	if err != nil {
		return err
	}

	srt, err := sorter.New(sorter.Options{Policy: s.cfg.PriorityPolicy, Logger: s.logger})
	if err != nil {
		return settingsError(err)
	}

	order, err := srt.Sort(s.game)
	if err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("sort plugins").
			WithResource(s.game.Settings().GamePath).
			Wrap(err)
		if errors.Is(err, dag.ErrCycle) {
			ctx.WithGuide(issue.DependencyCycleId)
		}
		return ctx.BuildError()
	}

	renderOrder(app.stdout, order)
	renderMessages(app.stdout, s.game.Messages(), order)

	if !apply {
		return nil
	}
	if err := s.files.WriteLoadOrder(sorter.Names(order)); err != nil {
		return issue.NewErrorContext().
			WithOperation("write load order").
			WithResource(loadorder.LoadOrderFile).
			WithGuide(issue.LoadOrderWriteFailedId).
			Wrap(err).
			BuildError()
	}
	fmt.Fprintf(app.stdout, "\n%s wrote %s\n", SuccessStyle.Render("✓"), loadorder.LoadOrderFile)
	return nil
}
