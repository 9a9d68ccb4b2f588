// SPDX-License-Identifier: MPL-2.0

// Package dag provides a directed graph over dense integer node ids with
// deterministic topological sorting and cycle reporting. The sorter uses it to
// turn plugin ordering constraints into a load order.
//
// Node ids are assigned in insertion order and double as the tie-break rank:
// whenever several nodes are free to come next, the smallest id wins.
package dag

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"
)

const (
	// Structural edges come from the masters listed in a plugin header.
	Structural EdgeKind = iota
	// Requirement edges come from metadata requirements.
	Requirement
	// LoadAfter edges come from metadata load-after hints.
	LoadAfter
	// GameMaster edges put the game's primary master before other masters.
	GameMaster
	// Group edges put masters before ordinary plugins.
	Group
	// Priority edges order plugins by effective priority.
	Priority
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// EdgeKind records why an edge exists.
	EdgeKind int

	// Edge is one directed constraint: From must come before To.
	Edge struct {
		From int
		To   int
		Kind EdgeKind
	}

	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle holds the labels of one simple cycle. The first and last
		// entries are the same node.
		Cycle []string
		// Kinds holds the kind of each edge in Cycle: Kinds[i] leads from
		// Cycle[i] to Cycle[i+1].
		Kinds []EdgeKind
	}

	// Graph is a directed graph for topological sorting.
	// An edge from A to B means A must come before B.
	Graph struct {
		labels  []string
		virtual []bool
		out     [][]Edge
		edges   map[[2]int]EdgeKind
	}

	// minHeap is the ready set of Kahn's algorithm.
	minHeap []int
)

// String returns the edge kind name.
func (k EdgeKind) String() string {
	switch k {
	case Structural:
		return "master"
	case Requirement:
		return "requirement"
	case LoadAfter:
		return "load after"
	case GameMaster:
		return "game master"
	case Group:
		return "group"
	case Priority:
		return "priority"
	default:
		return "unknown"
	}
}

// Hard reports whether the edge kind is a hard constraint. Only priority edges
// are soft.
func (k EdgeKind) Hard() bool { return k != Priority }

func (e *CycleError) Error() string {
	if len(e.Kinds) != len(e.Cycle)-1 {
		return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
	}
	var b strings.Builder
	b.WriteString("dependency cycle detected: ")
	for i, label := range e.Cycle {
		b.WriteString(label)
		if i < len(e.Kinds) {
			fmt.Fprintf(&b, " -[%s]-> ", e.Kinds[i])
		}
	}
	return b.String()
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{edges: make(map[[2]int]EdgeKind)}
}

// AddNode appends a node and returns its id.
func (g *Graph) AddNode(label string) int {
	return g.addNode(label, false)
}

// AddVirtualNode appends a node that constrains the order but never appears
// in a sort result or a reported cycle.
func (g *Graph) AddVirtualNode(label string) int {
	return g.addNode(label, true)
}

func (g *Graph) addNode(label string, virtual bool) int {
	g.labels = append(g.labels, label)
	g.virtual = append(g.virtual, virtual)
	g.out = append(g.out, nil)
	return len(g.labels) - 1
}

// Len returns the number of nodes, virtual nodes included.
func (g *Graph) Len() int { return len(g.labels) }

// Label returns the label of node id.
func (g *Graph) Label(id int) string { return g.labels[id] }

// AddEdge adds a directed edge from -> to and reports whether it was added.
// A second edge between the same ordered pair is ignored; the first kind is
// kept.
func (g *Graph) AddEdge(from, to int, kind EdgeKind) bool {
	k := [2]int{from, to}
	if _, ok := g.edges[k]; ok {
		return false
	}
	g.edges[k] = kind
	g.out[from] = append(g.out[from], Edge{From: from, To: to, Kind: kind})
	return true
}

// HasEdge reports whether an edge from -> to exists.
func (g *Graph) HasEdge(from, to int) bool {
	_, ok := g.edges[[2]int{from, to}]
	return ok
}

// EdgeKind returns the kind of the edge from -> to.
func (g *Graph) EdgeKind(from, to int) (EdgeKind, bool) {
	k, ok := g.edges[[2]int{from, to}]
	return k, ok
}

// Out returns the outgoing edges of node id in insertion order.
func (g *Graph) Out(id int) []Edge { return g.out[id] }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// PathExists reports whether to is reachable from from. A node reaches itself.
func (g *Graph) PathExists(from, to int) bool {
	if from == to {
		return true
	}
	seen := make([]bool, len(g.labels))
	seen[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range g.out[n] {
			if e.To == to {
				return true
			}
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return false
}

// Sort returns the non-virtual node ids in a topological order using Kahn's
// algorithm. Among ready nodes the smallest id is always taken first, so the
// result depends only on the nodes and edges, not on insertion order of
// edges. Returns CycleError if the graph contains a cycle.
func (g *Graph) Sort() ([]int, error) {
	if len(g.labels) == 0 {
		return nil, nil
	}

	inDegree := make([]int, len(g.labels))
	for _, edges := range g.out {
		for _, e := range edges {
			inDegree[e.To]++
		}
	}

	ready := &minHeap{}
	for id, d := range inDegree {
		if d == 0 {
			*ready = append(*ready, id)
		}
	}
	heap.Init(ready)

	result := make([]int, 0, len(g.labels))
	visited := 0
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		visited++
		if !g.virtual[id] {
			result = append(result, id)
		}
		for _, e := range g.out[id] {
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				heap.Push(ready, e.To)
			}
		}
	}

	if visited != len(g.labels) {
		blocked := make([]bool, len(g.labels))
		for id, d := range inDegree {
			blocked[id] = d > 0
		}
		return nil, g.cycleError(g.findCycle(blocked))
	}
	return result, nil
}

// FindCycle returns one simple cycle as node ids with the first id repeated
// at the end, or nil if the graph is acyclic.
func (g *Graph) FindCycle() []int {
	return g.findCycle(nil)
}

// CheckAcyclic returns a CycleError describing one cycle, or nil.
func (g *Graph) CheckAcyclic() error {
	if cycle := g.FindCycle(); cycle != nil {
		return g.cycleError(cycle)
	}
	return nil
}

// findCycle runs a depth-first search from every node in id order, limited to
// nodes in scope (all nodes when scope is nil), and returns the first cycle
// closed by a back edge.
func (g *Graph) findCycle(scope []bool) []int {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(g.labels))
	var stack []int

	var visit func(int) []int
	visit = func(n int) []int {
		state[n] = onStack
		stack = append(stack, n)
		for _, e := range g.out[n] {
			if scope != nil && !scope[e.To] {
				continue
			}
			switch state[e.To] {
			case onStack:
				start := len(stack) - 1
				for stack[start] != e.To {
					start--
				}
				cycle := append([]int(nil), stack[start:]...)
				return append(cycle, e.To)
			case unvisited:
				if cycle := visit(e.To); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for id := range g.labels {
		if scope != nil && !scope[id] {
			continue
		}
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// cycleError converts a cycle of ids into labels, dropping virtual nodes. An
// edge into a virtual node stands for the whole hop through it.
func (g *Graph) cycleError(cycle []int) *CycleError {
	ids := cycle[:len(cycle)-1]
	// Rotate so the cycle starts at a real node.
	for i, id := range ids {
		if !g.virtual[id] {
			ids = append(append([]int(nil), ids[i:]...), ids[:i]...)
			break
		}
	}

	err := &CycleError{}
	for i := 0; i < len(ids); i++ {
		id := ids[i]
		if g.virtual[id] {
			continue
		}
		next := ids[(i+1)%len(ids)]
		kind, _ := g.EdgeKind(id, next)
		err.Cycle = append(err.Cycle, g.labels[id])
		err.Kinds = append(err.Kinds, kind)
	}
	if len(err.Cycle) > 0 {
		err.Cycle = append(err.Cycle, err.Cycle[0])
	}
	return err
}

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(int)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
