// SPDX-License-Identifier: MPL-2.0

package sorter

import (
	"github.com/plugsort/plugsort/internal/dag"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/charmbracelet/log"
)

// ResolvePriorities computes effective priorities: each plugin's priority is
// raised to the highest priority among the plugins it requires or loads after,
// transitively. Structural and game master edges do not carry priority.
//
// The relaxation runs over a worklist until no value changes, so the result
// does not depend on the order metadata was registered in. The returned map
// is keyed by plugin key; the graph's nodes are updated as well.
func ResolvePriorities(g *Graph) map[plugin.Key]int {
	queued := make([]bool, len(g.nodes))
	work := make([]int, 0, len(g.nodes))
	for i := range g.nodes {
		work = append(work, i)
		queued[i] = true
	}

	for len(work) > 0 {
		i := work[0]
		work = work[1:]
		queued[i] = false
		for _, h := range g.heirs[i] {
			if g.nodes[h].priority < g.nodes[i].priority {
				g.nodes[h].priority = g.nodes[i].priority
				if !queued[h] {
					work = append(work, h)
					queued[h] = true
				}
			}
		}
	}

	out := make(map[plugin.Key]int, len(g.nodes))
	for _, n := range g.nodes {
		out[n.rec.Key] = n.priority
	}
	return out
}

// addPriorityEdges adds an edge from the lower to the higher effective
// priority for every pair of plugins that differ in priority and either share
// a group or include a global priority. Pairs are visited in rank order. An
// edge is skipped when the graph already orders the pair the other way, since
// priorities never override hard constraints. It returns the number of edges
// added.
func addPriorityEdges(g *Graph, logger *log.Logger) int {
	added := 0
	for i := range g.nodes {
		for j := i + 1; j < len(g.nodes); j++ {
			a, b := g.nodes[i], g.nodes[j]
			if a.priority == b.priority {
				continue
			}
			if a.group != b.group && !a.entry.GlobalPriority && !b.entry.GlobalPriority {
				continue
			}
			from, to := i, j
			if a.priority > b.priority {
				from, to = j, i
			}
			if g.dag.HasEdge(from, to) {
				continue
			}
			if g.dag.PathExists(to, from) {
				logger.Debug("priority edge skipped", "from", g.nodes[from].rec.Name, "to", g.nodes[to].rec.Name)
				continue
			}
			g.dag.AddEdge(from, to, dag.Priority)
			added++
		}
	}
	return added
}
