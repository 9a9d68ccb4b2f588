// SPDX-License-Identifier: MPL-2.0

package sorter

import (
	"cmp"
	"slices"

	"github.com/plugsort/plugsort/internal/dag"
	"github.com/plugsort/plugsort/internal/game"
	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/metadata"
	"github.com/plugsort/plugsort/pkg/plugin"
)

const barrierLabel = "<masters before plugins>"

type (
	// node is one plugin for the duration of a sort.
	node struct {
		rec      *plugin.Record
		entry    metadata.Entry
		group    plugin.Group
		priority int
	}

	// Graph is the constraint graph of one sort. Node i of the dag is
	// nodes[i]; the group barrier comes after every plugin node.
	Graph struct {
		dag   *dag.Graph
		nodes []*node
		index map[plugin.Key]int
		// heirs[i] lists the nodes that require or load after node i. It is
		// kept apart from the dag because a metadata relation may duplicate a
		// structural edge.
		heirs   [][]int
		barrier int
	}
)

// BuildGraph turns a snapshot into a constraint graph holding the hard edges:
// game master, structural masters, metadata requirements and load-after hints,
// and the master/plugin group partition. References to plugins that are not
// loaded produce diagnostics instead of edges.
//
// Node order is the tie-break rank: plugins in the current load order come
// first in that order, followed by the rest in discovery order.
func BuildGraph(snap game.Snapshot, policy metadata.PriorityPolicy) (*Graph, []message.Message) {
	g := &Graph{dag: dag.New(), index: make(map[plugin.Key]int, len(snap.Records))}

	for _, rec := range rankRecords(snap.Records, snap.LoadOrder) {
		curated, _ := snap.Masterlist.Get(rec.Key)
		user, _ := snap.Userlist.Get(rec.Key)
		entry := metadata.Merge(curated, user, policy)
		entry.Name = rec.Name

		g.index[rec.Key] = g.dag.AddNode(rec.Name.String())
		g.nodes = append(g.nodes, &node{rec: rec, entry: entry, group: rec.Group(), priority: entry.Priority})
	}
	g.barrier = g.dag.AddVirtualNode(barrierLabel)
	g.heirs = make([][]int, len(g.nodes))

	var diags []message.Message

	if primary, ok := g.index[snap.Kind.PrimaryMaster().Key()]; ok && g.nodes[primary].rec.IsMaster {
		for i, n := range g.nodes {
			if i != primary && n.rec.IsMaster {
				g.dag.AddEdge(primary, i, dag.GameMaster)
			}
		}
	}

	missingMaster := message.Warn
	if snap.FullyLoaded {
		missingMaster = message.Error
	}
	for i, n := range g.nodes {
		for _, m := range n.rec.Masters {
			if from, ok := g.index[m.Key()]; ok {
				g.addEdge(from, i, dag.Structural)
				continue
			}
			diags = append(diags, message.Newf(missingMaster, message.CodeMissingMaster, n.rec.Name,
				"requires missing master %s", m))
		}
	}

	for i, n := range g.nodes {
		for _, r := range n.entry.Requirements {
			if from, ok := g.index[r.Key()]; ok {
				g.addMetadataEdge(from, i, dag.Requirement)
				continue
			}
			diags = append(diags, message.Newf(message.Error, message.CodeMissingRequirement, n.rec.Name,
				"requires %s, which is not installed", r))
		}
		for _, a := range n.entry.LoadAfter {
			if from, ok := g.index[a.Key()]; ok {
				g.addMetadataEdge(from, i, dag.LoadAfter)
				continue
			}
			diags = append(diags, message.Newf(message.Say, message.CodeDanglingLoadAfter, n.rec.Name,
				"should load after %s, which is not installed", a))
		}
	}

	for i, n := range g.nodes {
		if n.group == plugin.GroupMaster {
			g.dag.AddEdge(i, g.barrier, dag.Group)
		} else {
			g.dag.AddEdge(g.barrier, i, dag.Group)
		}
	}

	return g, diags
}

// Len returns the number of plugin nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// HasEdge reports whether the graph holds an edge between two plugins.
func (g *Graph) HasEdge(from, to plugin.Key) bool {
	i, ok := g.index[from]
	j, ok2 := g.index[to]
	return ok && ok2 && g.dag.HasEdge(i, j)
}

// addEdge adds a hard edge between two plugins. Self-references are dropped.
func (g *Graph) addEdge(from, to int, kind dag.EdgeKind) {
	if from != to {
		g.dag.AddEdge(from, to, kind)
	}
}

func (g *Graph) addMetadataEdge(from, to int, kind dag.EdgeKind) {
	if from == to {
		return
	}
	g.dag.AddEdge(from, to, kind)
	g.heirs[from] = append(g.heirs[from], to)
}

// rankRecords orders records by their position in order, then by discovery.
func rankRecords(records []*plugin.Record, order []plugin.Name) []*plugin.Record {
	pos := make(map[plugin.Key]int, len(order))
	for i, n := range order {
		if _, ok := pos[n.Key()]; !ok {
			pos[n.Key()] = i
		}
	}
	rank := func(r *plugin.Record) int {
		if p, ok := pos[r.Key]; ok {
			return p
		}
		return len(order) + r.Discovery
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b *plugin.Record) int {
		return cmp.Compare(rank(a), rank(b))
	})
	return out
}
