// SPDX-License-Identifier: MPL-2.0

package sorter

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/plugsort/plugsort/internal/dag"
	"github.com/plugsort/plugsort/internal/game"
	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/metadata"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type (
	// Options configure a Sorter.
	Options struct {
		// Policy combines curated and user priorities. Defaults to
		// metadata.PriorityOverride.
		Policy metadata.PriorityPolicy
		// Logger defaults to a logger that discards output.
		Logger *log.Logger
	}

	// Sorter computes load orders for games.
	Sorter struct {
		policy metadata.PriorityPolicy
		logger *log.Logger
	}

	// Plugin is one entry of a computed load order.
	Plugin struct {
		Record *plugin.Record
		// Metadata is the merged curated and user entry.
		Metadata metadata.Entry
		// EffectivePriority is the priority after propagation along
		// requirements and load-after hints.
		EffectivePriority int
	}
)

// New creates a Sorter. An invalid policy is rejected.
func New(opts Options) (*Sorter, error) {
	if ok, errs := opts.Policy.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	if opts.Policy == "" {
		opts.Policy = metadata.PriorityOverride
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Sorter{policy: opts.Policy, logger: opts.Logger}, nil
}

// Sort computes the load order of the plugins loaded into g.
//
// On success the game's message list is replaced by the diagnostics of this
// attempt: those of the last load followed by those of graph construction.
// The list may end up empty. On a cycle the message list is left as it was,
// a cyclic_dependency message is appended to g.Errors(), and the returned
// error wraps *dag.CycleError.
func (s *Sorter) Sort(g *game.Game) ([]Plugin, error) {
	logger := s.logger.With("attempt", uuid.NewString())

	snap, err := g.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read the current load order: %w", err)
	}

	graph, diags := BuildGraph(snap, s.policy)
	logger.Debug("graph built", "plugins", graph.Len(), "edges", graph.dag.EdgeCount(), "diagnostics", len(diags))

	if err := graph.dag.CheckAcyclic(); err != nil {
		return nil, s.fail(g, logger, err)
	}

	ResolvePriorities(graph)
	added := addPriorityEdges(graph, logger)
	logger.Debug("priority edges added", "edges", added)

	order, err := graph.dag.Sort()
	if err != nil {
		return nil, s.fail(g, logger, err)
	}

	msgs := slices.Concat(snap.LoadDiagnostics, diags)
	g.ReplaceMessages(msgs)

	out := make([]Plugin, 0, len(order))
	for _, id := range order {
		n := graph.nodes[id]
		out = append(out, Plugin{Record: n.rec, Metadata: n.entry, EffectivePriority: n.priority})
	}
	logger.Info("load order sorted", "plugins", len(out), "messages", len(msgs))
	return out, nil
}

// fail records a failed attempt on the game's error channel.
func (s *Sorter) fail(g *game.Game, logger *log.Logger, err error) error {
	text := err.Error()
	var cycleErr *dag.CycleError
	if errors.As(err, &cycleErr) {
		text = "cyclic interaction detected: " + joinCycle(cycleErr)
	}
	g.AppendError(message.New(message.Error, message.CodeCyclicDependency, text))
	logger.Error("sort failed", "error", err)
	return err
}

// Names returns the plugin names of a load order.
func Names(order []Plugin) []plugin.Name {
	out := make([]plugin.Name, len(order))
	for i, p := range order {
		out[i] = p.Record.Name
	}
	return out
}

func joinCycle(e *dag.CycleError) string {
	var b []byte
	for i, name := range e.Cycle {
		if i > 0 {
			kind := "?"
			if i-1 < len(e.Kinds) {
				kind = e.Kinds[i-1].String()
			}
			b = fmt.Appendf(b, " --[%s]--> ", kind)
		}
		b = append(b, name...)
	}
	return string(b)
}
