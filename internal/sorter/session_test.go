// SPDX-License-Identifier: MPL-2.0

package sorter

import (
	"errors"
	"slices"
	"testing"

	"github.com/plugsort/plugsort/internal/dag"
	"github.com/plugsort/plugsort/internal/game"
	"github.com/plugsort/plugsort/internal/testutil"
	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/metadata"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/spf13/afero"
)

const (
	testGamePath  = "/games/skyrim"
	testLocalPath = "/local/Skyrim"
)

var skyrimMasters = []plugin.Name{
	testutil.SkyrimESM,
	testutil.BlankESM,
	testutil.BlankDifferentESM,
	testutil.BlankMasterDependentESM,
	testutil.BlankDifferentMasterDependentESM,
}

// loadSkyrim returns a fully loaded game holding the eleven-plugin fixture.
func loadSkyrim(t *testing.T, masterlist, userlist *metadata.Set) *game.Game {
	t.Helper()
	fs := afero.NewMemMapFs()
	testutil.WriteSkyrim(t, fs, testGamePath, testLocalPath)
	g, err := game.New(game.Settings{Kind: game.KindTES5, GamePath: testGamePath, LocalPath: testLocalPath},
		game.Options{Fs: fs})
	if err != nil {
		t.Fatalf("game.New() error = %v", err)
	}
	if err := g.LoadPlugins(t.Context(), false); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}
	g.SetMetadata(masterlist, userlist)
	return g
}

func newSorter(t *testing.T, policy metadata.PriorityPolicy) *Sorter {
	t.Helper()
	s, err := New(Options{Policy: policy})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func withPlugins(names ...plugin.Name) []plugin.Name {
	return append(slices.Clone(skyrimMasters), names...)
}

func TestSort_NoMetadata(t *testing.T) {
	t.Parallel()

	g := loadSkyrim(t, nil, nil)
	s := newSorter(t, "")

	first, err := s.Sort(g)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	want := make([]plugin.Name, 0, 11)
	for _, n := range testutil.SkyrimLoadOrder() {
		want = append(want, plugin.Name(n))
	}
	if got := Names(first); !slices.Equal(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}

	second, err := s.Sort(g)
	if err != nil {
		t.Fatalf("second Sort() error = %v", err)
	}
	if !slices.Equal(Names(first), Names(second)) {
		t.Errorf("repeated Sort() differs: %v vs %v", Names(first), Names(second))
	}
}

func TestSort_HardEdgesAndGroups(t *testing.T) {
	t.Parallel()

	g := loadSkyrim(t, nil, nil)
	order, err := newSorter(t, "").Sort(g)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}

	pos := make(map[plugin.Key]int, len(order))
	lastMaster, firstPlugin := -1, len(order)
	for i, p := range order {
		pos[p.Record.Key] = i
		if p.Record.IsMaster {
			lastMaster = max(lastMaster, i)
		} else {
			firstPlugin = min(firstPlugin, i)
		}
	}
	if lastMaster > firstPlugin {
		t.Errorf("a plugin sorts before a master: %v", Names(order))
	}
	for _, p := range order {
		for _, m := range p.Record.Masters {
			if pos[m.Key()] > pos[p.Record.Key] {
				t.Errorf("%s sorts before its master %s", p.Record.Name, m)
			}
		}
	}
}

func TestSort_GlobalLowPriority(t *testing.T) {
	t.Parallel()

	masterlist := metadata.NewSet(metadata.Entry{
		Name:           testutil.BlankDifferentMasterDependentESP,
		Priority:       -100000,
		GlobalPriority: true,
	})
	g := loadSkyrim(t, masterlist, nil)

	order, err := newSorter(t, "").Sort(g)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	want := withPlugins(
		testutil.BlankDifferentMasterDependentESP,
		testutil.BlankESP,
		testutil.BlankDifferentESP,
		testutil.BlankMasterDependentESP,
		testutil.BlankPluginDependentESP,
		testutil.BlankDifferentPluginDependentESP,
	)
	if got := Names(order); !slices.Equal(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestSort_LoadAfterAndRequirements(t *testing.T) {
	t.Parallel()

	want := withPlugins(
		testutil.BlankDifferentESP,
		testutil.BlankMasterDependentESP,
		testutil.BlankDifferentMasterDependentESP,
		testutil.BlankDifferentPluginDependentESP,
		testutil.BlankESP,
		testutil.BlankPluginDependentESP,
	)
	targets := []plugin.Name{testutil.BlankDifferentESP, testutil.BlankDifferentPluginDependentESP}

	tests := []struct {
		name  string
		entry metadata.Entry
	}{
		{"load after", metadata.Entry{Name: testutil.BlankESP, LoadAfter: targets}},
		{"requirements", metadata.Entry{Name: testutil.BlankESP, Requirements: targets}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := loadSkyrim(t, nil, metadata.NewSet(tt.entry))
			order, err := newSorter(t, "").Sort(g)
			if err != nil {
				t.Fatalf("Sort() error = %v", err)
			}
			if got := Names(order); !slices.Equal(got, want) {
				t.Errorf("Sort() = %v, want %v", got, want)
			}
		})
	}
}

func TestSort_PriorityPropagationOrderIndependent(t *testing.T) {
	t.Parallel()

	entries := []metadata.Entry{
		{Name: testutil.BlankESP, Priority: 2},
		{Name: testutil.BlankMasterDependentESP, LoadAfter: []plugin.Name{testutil.BlankESP}},
		{Name: testutil.BlankDifferentESP, LoadAfter: []plugin.Name{testutil.BlankMasterDependentESP}},
		{Name: testutil.BlankDifferentMasterDependentESP, Priority: 1, GlobalPriority: true},
	}
	want := withPlugins(
		testutil.BlankDifferentMasterDependentESP,
		testutil.BlankESP,
		testutil.BlankPluginDependentESP,
		testutil.BlankMasterDependentESP,
		testutil.BlankDifferentESP,
		testutil.BlankDifferentPluginDependentESP,
	)
	wantPriority := map[plugin.Name]int{
		testutil.BlankESP:                         2,
		testutil.BlankMasterDependentESP:          2,
		testutil.BlankDifferentESP:                2,
		testutil.BlankDifferentMasterDependentESP: 1,
		testutil.BlankPluginDependentESP:          0,
	}

	for i := range entries {
		rotated := append(slices.Clone(entries[i:]), entries[:i]...)
		reversed := slices.Clone(rotated)
		slices.Reverse(reversed)
		for _, list := range [][]metadata.Entry{rotated, reversed} {
			g := loadSkyrim(t, metadata.NewSet(list...), nil)
			order, err := newSorter(t, "").Sort(g)
			if err != nil {
				t.Fatalf("Sort() error = %v", err)
			}
			if got := Names(order); !slices.Equal(got, want) {
				t.Errorf("rotation %d: Sort() = %v, want %v", i, got, want)
			}
			for _, p := range order {
				if w, ok := wantPriority[p.Record.Name]; ok && p.EffectivePriority != w {
					t.Errorf("%s EffectivePriority = %d, want %d", p.Record.Name, p.EffectivePriority, w)
				}
			}
		}
	}
}

func TestSort_CycleLeavesMessages(t *testing.T) {
	t.Parallel()

	userlist := metadata.NewSet(metadata.Entry{
		Name:      testutil.BlankESM,
		LoadAfter: []plugin.Name{testutil.BlankMasterDependentESM},
	})
	g := loadSkyrim(t, nil, userlist)
	existing := message.New(message.Warn, message.CodeMetadata, "from an earlier sort")
	g.AppendMessage(existing)

	order, err := newSorter(t, "").Sort(g)
	if order != nil {
		t.Errorf("Sort() returned a partial order %v", Names(order))
	}
	if !errors.Is(err, dag.ErrCycle) {
		t.Fatalf("Sort() error = %v, want ErrCycle", err)
	}
	var cycleErr *dag.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Sort() error = %T, want *dag.CycleError", err)
	}
	cycle := cycleErr.Cycle
	if cycle[0] != cycle[len(cycle)-1] || !slices.Contains(cycle, testutil.BlankESM) || !slices.Contains(cycle, testutil.BlankMasterDependentESM) {
		t.Errorf("Cycle = %v", cycle)
	}

	if msgs := g.Messages(); !slices.Equal(msgs, []message.Message{existing}) {
		t.Errorf("Messages() = %v, want the pre-existing message only", msgs)
	}
	errs := g.Errors()
	if len(errs) != 1 || errs[0].Code != message.CodeCyclicDependency {
		t.Errorf("Errors() = %v, want one cyclic_dependency message", errs)
	}
}

func TestSort_SuccessReplacesMessages(t *testing.T) {
	t.Parallel()

	g := loadSkyrim(t, nil, nil)
	g.AppendMessage(message.New(message.Warn, message.CodeMetadata, "stale"))

	if _, err := newSorter(t, "").Sort(g); err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if msgs := g.Messages(); len(msgs) != 0 {
		t.Errorf("Messages() = %v, want empty", msgs)
	}
}

func TestSort_DiagnosticsBecomeMessages(t *testing.T) {
	t.Parallel()

	userlist := metadata.NewSet(
		metadata.Entry{Name: testutil.BlankESP, Requirements: []plugin.Name{"Missing.esm"}},
		metadata.Entry{Name: testutil.BlankDifferentESP, LoadAfter: []plugin.Name{"Gone.esp"}},
		metadata.Entry{Name: "NotInstalled.esp", LoadAfter: []plugin.Name{"Gone.esp"}},
	)
	g := loadSkyrim(t, nil, userlist)

	order, err := newSorter(t, "").Sort(g)
	if err != nil {
		t.Fatalf("Sort() error = %v", err)
	}
	if len(order) != 11 {
		t.Errorf("Sort() returned %d plugins, want 11", len(order))
	}
	msgs := g.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() = %v, want 2", msgs)
	}
	if msgs[0].Code != message.CodeMissingRequirement || msgs[0].Severity != message.Error || msgs[0].Plugin != testutil.BlankESP {
		t.Errorf("Messages()[0] = %+v", msgs[0])
	}
	if msgs[1].Code != message.CodeDanglingLoadAfter || msgs[1].Severity != message.Say || msgs[1].Plugin != testutil.BlankDifferentESP {
		t.Errorf("Messages()[1] = %+v", msgs[1])
	}
}

func TestSort_PriorityPolicy(t *testing.T) {
	t.Parallel()

	masterlist := metadata.NewSet(metadata.Entry{Name: testutil.BlankESP, Priority: 5})
	userlist := metadata.NewSet(metadata.Entry{Name: testutil.BlankESP, Priority: 1})

	tests := []struct {
		policy metadata.PriorityPolicy
		want   int
	}{
		{metadata.PriorityOverride, 1},
		{metadata.PriorityMax, 5},
	}
	for _, tt := range tests {
		g := loadSkyrim(t, masterlist, userlist)
		order, err := newSorter(t, tt.policy).Sort(g)
		if err != nil {
			t.Fatalf("%s: Sort() error = %v", tt.policy, err)
		}
		for _, p := range order {
			if p.Record.Name == testutil.BlankESP && p.EffectivePriority != tt.want {
				t.Errorf("%s: EffectivePriority = %d, want %d", tt.policy, p.EffectivePriority, tt.want)
			}
		}
	}
}

func TestNew_InvalidPolicy(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{Policy: "sum"}); !errors.Is(err, metadata.ErrInvalidPriorityPolicy) {
		t.Errorf("New() error = %v, want ErrInvalidPriorityPolicy", err)
	}
}
