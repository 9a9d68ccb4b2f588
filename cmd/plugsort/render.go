// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/plugsort/plugsort/internal/dag"
	"github.com/plugsort/plugsort/internal/sorter"
	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/plugin"
)

// fail prints the details of err and converts it into an ExitError carrying
// the process exit code.
func (a *App) fail(err error, g *globalFlags) error {
	a.explain(err, g.verbose)
	code := ExitFailure
	if errors.Is(err, dag.ErrCycle) {
		code = ExitCycle
	}
	return &ExitError{Code: code, Err: err}
}

// renderOrder prints one numbered line per plugin. Positions start at 0, the
// way the game counts them.
func renderOrder(w io.Writer, order []sorter.Plugin) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Load order (%d plugins)", len(order))))
	for i, p := range order {
		fmt.Fprintf(w, "%s  %s\n", indexStyle.Render(fmt.Sprint(i)), PluginStyle.Render(p.Record.Name.String()))
	}
}

// renderMessages prints the game's messages followed by the messages that
// metadata attaches to sorted plugins. Nothing is printed when both are empty.
func renderMessages(w io.Writer, game []message.Message, order []sorter.Plugin) {
	msgs := game
	for _, p := range order {
		for _, m := range p.Metadata.Messages {
			if m.Plugin == "" {
				m.Plugin = p.Record.Name
			}
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Messages"))
	for _, m := range msgs {
		fmt.Fprintf(w, "  %s %s\n", severityStyle(m.Severity).Render(fmt.Sprintf("%-5s", m.Severity)), messageText(m))
	}
}

func messageText(m message.Message) string {
	if m.Plugin == "" {
		return m.Text
	}
	return PluginStyle.Render(m.Plugin.String()) + ": " + m.Text
}

// renderPlugins prints the installed plugins in discovery order.
func renderPlugins(w io.Writer, records []*plugin.Record, fullyLoaded bool) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Installed plugins (%d)", len(records))))
	for _, r := range records {
		var tags []string
		if r.IsMaster {
			tags = append(tags, "master")
		}
		if r.IsActive {
			tags = append(tags, "active")
		}
		line := PluginStyle.Render(r.Name.String())
		if len(tags) > 0 {
			line += " " + SubtitleStyle.Render("["+strings.Join(tags, ", ")+"]")
		}
		if fullyLoaded {
			line += " " + SubtitleStyle.Render(fmt.Sprintf("crc=%08X", r.CRC))
		}
		fmt.Fprintln(w, "  "+line)
		for _, m := range r.Masters {
			fmt.Fprintf(w, "      %s %s\n", SubtitleStyle.Render("requires"), m)
		}
	}
}
