// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

// newGraph adds one node per label and returns the graph.
func newGraph(labels ...string) *Graph {
	g := New()
	for _, l := range labels {
		g.AddNode(l)
	}
	return g
}

func labelsOf(g *Graph, ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Label(id)
	}
	return out
}

func TestSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	order, err := New().Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestSort_NoEdgesKeepsRank(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C")
	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []int{0, 1, 2}) {
		t.Errorf("expected [0 1 2], got %v", order)
	}
}

func TestSort_LinearChain(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C")
	// C -> B -> A
	g.AddEdge(2, 1, Structural)
	g.AddEdge(1, 0, LoadAfter)

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := labelsOf(g, order); !slices.Equal(got, []string{"C", "B", "A"}) {
		t.Errorf("expected [C B A], got %v", got)
	}
}

func TestSort_SmallestReadyIDFirst(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C", "D")
	// D must precede A. Once D is placed, A (id 0) outranks B and C.
	g.AddEdge(3, 0, Requirement)

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := labelsOf(g, order); !slices.Equal(got, []string{"B", "C", "D", "A"}) {
		t.Errorf("expected [B C D A], got %v", got)
	}
}

func TestSort_EdgeInsertionOrderIrrelevant(t *testing.T) {
	t.Parallel()
	edges := []Edge{{0, 2, LoadAfter}, {1, 2, LoadAfter}, {3, 1, Requirement}, {4, 0, Priority}}

	var first []int
	for i := range edges {
		g := newGraph("A", "B", "C", "D", "E")
		rotated := append(slices.Clone(edges[i:]), edges[:i]...)
		for _, e := range rotated {
			g.AddEdge(e.From, e.To, e.Kind)
		}
		order, err := g.Sort()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first == nil {
			first = order
			continue
		}
		if !slices.Equal(order, first) {
			t.Errorf("rotation %d: got %v, want %v", i, order, first)
		}
	}
}

func TestSort_VirtualNodeOmitted(t *testing.T) {
	t.Parallel()
	g := New()
	plugin := g.AddNode("plugin.esp")
	master := g.AddNode("master.esm")
	barrier := g.AddVirtualNode("barrier")
	g.AddEdge(master, barrier, Group)
	g.AddEdge(barrier, plugin, Group)

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := labelsOf(g, order); !slices.Equal(got, []string{"master.esm", "plugin.esp"}) {
		t.Errorf("expected [master.esm plugin.esp], got %v", got)
	}
}

func TestSort_SimpleCycle(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C")
	g.AddEdge(0, 1, LoadAfter)
	g.AddEdge(1, 0, Requirement)

	order, err := g.Sort()
	if order != nil {
		t.Errorf("expected no partial order, got %v", order)
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrCycle) {
		t.Error("expected errors.Is(err, ErrCycle)")
	}
	if !slices.Equal(cycleErr.Cycle, []string{"A", "B", "A"}) {
		t.Errorf("expected [A B A], got %v", cycleErr.Cycle)
	}
	if !slices.Equal(cycleErr.Kinds, []EdgeKind{LoadAfter, Requirement}) {
		t.Errorf("expected [load after requirement], got %v", cycleErr.Kinds)
	}
}

func TestSort_SelfLoop(t *testing.T) {
	t.Parallel()
	g := newGraph("A")
	g.AddEdge(0, 0, LoadAfter)

	_, err := g.Sort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"A", "A"}) {
		t.Errorf("expected [A A], got %v", cycleErr.Cycle)
	}
}

func TestSort_CycleBehindAcyclicPrefix(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C", "D", "E")
	// A -> B -> C -> D -> B, and D -> E which is stuck but not in the cycle.
	g.AddEdge(0, 1, Structural)
	g.AddEdge(1, 2, Structural)
	g.AddEdge(2, 3, LoadAfter)
	g.AddEdge(3, 4, LoadAfter)
	g.AddEdge(3, 1, Requirement)

	_, err := g.Sort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"B", "C", "D", "B"}) {
		t.Errorf("expected [B C D B], got %v", cycleErr.Cycle)
	}
}

func TestCycle_VirtualNodeCollapsed(t *testing.T) {
	t.Parallel()
	g := New()
	plugin := g.AddNode("plugin.esp")
	master := g.AddNode("master.esm")
	barrier := g.AddVirtualNode("barrier")
	g.AddEdge(master, barrier, Group)
	g.AddEdge(barrier, plugin, Group)
	g.AddEdge(plugin, master, LoadAfter)

	err := g.CheckAcyclic()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"plugin.esp", "master.esm", "plugin.esp"}) {
		t.Errorf("expected [plugin.esp master.esm plugin.esp], got %v", cycleErr.Cycle)
	}
	if !slices.Equal(cycleErr.Kinds, []EdgeKind{LoadAfter, Group}) {
		t.Errorf("expected [load after group], got %v", cycleErr.Kinds)
	}
}

func TestFindCycle_Acyclic(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C")
	g.AddEdge(0, 1, Structural)
	g.AddEdge(0, 2, Structural)
	g.AddEdge(1, 2, Structural)
	if c := g.FindCycle(); c != nil {
		t.Errorf("expected no cycle, got %v", c)
	}
	if err := g.CheckAcyclic(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAddEdge_Duplicate(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B")
	if !g.AddEdge(0, 1, Requirement) {
		t.Fatal("first AddEdge() = false")
	}
	if g.AddEdge(0, 1, LoadAfter) {
		t.Error("duplicate AddEdge() = true")
	}
	if kind, _ := g.EdgeKind(0, 1); kind != Requirement {
		t.Errorf("EdgeKind() = %v, want requirement", kind)
	}
	if g.EdgeCount() != 1 || len(g.Out(0)) != 1 {
		t.Errorf("EdgeCount() = %d, Out(0) = %v", g.EdgeCount(), g.Out(0))
	}
	if !g.HasEdge(0, 1) || g.HasEdge(1, 0) {
		t.Error("HasEdge() reported the wrong direction")
	}
}

func TestPathExists(t *testing.T) {
	t.Parallel()
	g := newGraph("A", "B", "C", "D")
	g.AddEdge(0, 1, Structural)
	g.AddEdge(1, 2, LoadAfter)

	tests := []struct {
		from, to int
		want     bool
	}{
		{0, 2, true},
		{2, 0, false},
		{3, 3, true},
		{0, 3, false},
	}
	for _, tt := range tests {
		if got := g.PathExists(tt.from, tt.to); got != tt.want {
			t.Errorf("PathExists(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEdgeKind_Hard(t *testing.T) {
	t.Parallel()
	for _, k := range []EdgeKind{Structural, Requirement, LoadAfter, GameMaster, Group} {
		if !k.Hard() {
			t.Errorf("%v.Hard() = false", k)
		}
	}
	if Priority.Hard() {
		t.Error("Priority.Hard() = true")
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycle: []string{"A", "B", "A"}, Kinds: []EdgeKind{LoadAfter, Structural}}
	expected := "dependency cycle detected: A -[load after]-> B -[master]-> A"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}

	bare := &CycleError{Cycle: []string{"A", "B", "C"}}
	if bare.Error() != "dependency cycle detected: A -> B -> C" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
