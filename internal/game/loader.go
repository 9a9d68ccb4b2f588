// SPDX-License-Identifier: MPL-2.0

package game

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type (
	// candidate is a plugin file found by the directory scan.
	candidate struct {
		name      plugin.Name
		path      string
		size      int64
		discovery int
	}

	// loadFailure is a plugin that a lane could not parse.
	loadFailure struct {
		candidate
		err error
	}
)

// LoadPlugins scans the data folder and parses every plugin file across a
// bounded number of lanes. Parse failures become plugin_parse_failed
// diagnostics and do not stop other plugins from loading. A successful call
// replaces everything a previous call loaded.
//
// With headersOnly set only plugin headers are read; ArePluginsFullyLoaded
// then reports false.
func (g *Game) LoadPlugins(ctx context.Context, headersOnly bool) error {
	candidates, diags, err := g.scan()
	if err != nil {
		return err
	}
	active, err := g.activeKeys()
	if err != nil {
		return err
	}

	lanes := laneCount(g.lanes, len(candidates))
	buckets := deal(candidates, lanes)
	g.logger.Debug("loading plugins", "plugins", len(candidates), "lanes", lanes, "headers_only", headersOnly)

	reg := newRegistry(len(candidates))
	failures := make([][]loadFailure, len(buckets))
	eg, ctx := errgroup.WithContext(ctx)
	for i, bucket := range buckets {
		eg.Go(func() error {
			var err error
			failures[i], err = g.runLane(ctx, reg, bucket, headersOnly, active)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	reg.freeze()

	var failed []loadFailure
	for _, f := range failures {
		failed = append(failed, f...)
	}
	slices.SortFunc(failed, func(a, b loadFailure) int { return cmp.Compare(a.discovery, b.discovery) })
	for _, f := range failed {
		g.logger.Warn("failed to parse plugin", "plugin", f.name, "error", f.err)
		diags = append(diags, message.Newf(message.Error, message.CodePluginParseFailed, f.name,
			"could not be parsed: %v", f.err))
	}

	g.mu.Lock()
	g.registry = reg
	g.fullyLoaded = !headersOnly
	g.loadDiags = diags
	g.mu.Unlock()

	g.logger.Info("plugins loaded", "loaded", reg.Len(), "failed", len(failed))
	return nil
}

// runLane parses its candidates in order and inserts the records. Parsing
// happens outside the registry lock.
func (g *Game) runLane(ctx context.Context, reg *Registry, bucket []candidate, headersOnly bool, active map[plugin.Key]bool) ([]loadFailure, error) {
	var failed []loadFailure
	for _, c := range bucket {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := g.parse(c.path, headersOnly)
		if err != nil {
			failed = append(failed, loadFailure{candidate: c, err: err})
			continue
		}
		rec.Name = c.name
		rec.Key = c.name.Key()
		rec.Discovery = c.discovery
		rec.IsActive = active[rec.Key]
		if !reg.insert(rec) {
			failed = append(failed, loadFailure{candidate: c, err: fmt.Errorf("duplicate plugin %s", c.name)})
		}
	}
	return failed, nil
}

// parse calls the parser, turning a panic into an error for that plugin.
func (g *Game) parse(path string, headersOnly bool) (rec *plugin.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("parser panic: %v", r)
		}
	}()
	rec, err = g.parser.Parse(path, headersOnly)
	if err == nil && rec == nil {
		err = fmt.Errorf("parser returned no record for %s", path)
	}
	return rec, err
}

// scan lists plugin files in the data folder in name order. When two files
// map to the same plugin (a ghosted and an unghosted copy, or names differing
// only by case) the first one wins.
func (g *Game) scan() ([]candidate, []message.Message, error) {
	dir := g.settings.DataPath()
	entries, err := afero.ReadDir(g.fs, dir)
	if err != nil {
		return nil, nil, &PathUnavailableError{Path: dir, Cause: err}
	}

	var (
		out   []candidate
		diags []message.Message
		seen  = make(map[plugin.Key]plugin.Name, len(entries))
	)
	for _, e := range entries {
		if !e.Mode().IsRegular() || !plugin.IsPluginFilename(e.Name()) {
			continue
		}
		name := plugin.Name(plugin.TrimGhost(e.Name()))
		if first, ok := seen[name.Key()]; ok {
			diags = append(diags, message.Newf(message.Warn, message.CodeDuplicatePlugin, first,
				"ignoring %s, which is another copy of this plugin", e.Name()))
			continue
		}
		seen[name.Key()] = name
		out = append(out, candidate{
			name:      name,
			path:      filepath.Join(dir, e.Name()),
			size:      e.Size(),
			discovery: len(out),
		})
	}
	return out, diags, nil
}

func (g *Game) activeKeys() (map[plugin.Key]bool, error) {
	names, err := g.loadOrder.ActivePlugins()
	if err != nil {
		return nil, err
	}
	keys := make(map[plugin.Key]bool, len(names))
	for _, n := range names {
		keys[n.Key()] = true
	}
	return keys, nil
}

// laneCount returns max(1, min(parallelism, n)), with parallelism defaulting
// to GOMAXPROCS.
func laneCount(parallelism, n int) int {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return max(1, min(parallelism, n))
}

// deal sorts candidates by ascending size and deals them round-robin, so each
// lane gets a similar mix of small and large files. The balance is
// approximate.
func deal(candidates []candidate, lanes int) [][]candidate {
	sorted := slices.Clone(candidates)
	slices.SortFunc(sorted, func(a, b candidate) int {
		if c := cmp.Compare(a.size, b.size); c != 0 {
			return c
		}
		return cmp.Compare(a.discovery, b.discovery)
	})
	buckets := make([][]candidate, lanes)
	for i, c := range sorted {
		buckets[i%lanes] = append(buckets[i%lanes], c)
	}
	return buckets
}
