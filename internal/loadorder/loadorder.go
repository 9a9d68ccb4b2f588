// SPDX-License-Identifier: MPL-2.0

// Package loadorder reads the game's current load order and active plugin
// list from the per-game local folder.
//
// loadorder.txt lists every plugin in load order, one per line. plugins.txt
// lists the active plugins; a leading '*' marks a plugin active in the newer
// format, in which case lines without it are inactive. Blank lines and lines
// starting with '#' are ignored in both files. Missing files read as empty.
package loadorder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/spf13/afero"
)

const (
	// LoadOrderFile is the name of the file holding the full load order.
	LoadOrderFile = "loadorder.txt"
	// ActivePluginsFile is the name of the file holding the active plugins.
	ActivePluginsFile = "plugins.txt"

	activeMarker = '*'
)

// Files reads load order state from a local game folder.
type Files struct {
	fs  afero.Fs
	dir string
}

// New creates a reader for the files in dir. A nil fs means the OS filesystem.
func New(fsys afero.Fs, dir string) *Files {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Files{fs: fsys, dir: dir}
}

// LoadOrder returns the plugins listed in loadorder.txt, without duplicates.
func (f *Files) LoadOrder() ([]plugin.Name, error) {
	lines, err := f.readLines(LoadOrderFile)
	if err != nil {
		return nil, err
	}
	names := make([]plugin.Name, 0, len(lines))
	for _, line := range lines {
		names = append(names, plugin.Name(strings.TrimPrefix(line, string(activeMarker))))
	}
	return dedupe(names), nil
}

// ActivePlugins returns the plugins plugins.txt marks active.
func (f *Files) ActivePlugins() ([]plugin.Name, error) {
	lines, err := f.readLines(ActivePluginsFile)
	if err != nil {
		return nil, err
	}
	starred := false
	for _, line := range lines {
		if line[0] == activeMarker {
			starred = true
			break
		}
	}
	names := make([]plugin.Name, 0, len(lines))
	for _, line := range lines {
		if starred {
			if line[0] != activeMarker {
				continue
			}
			line = line[1:]
		}
		names = append(names, plugin.Name(line))
	}
	return dedupe(names), nil
}

// WriteLoadOrder replaces loadorder.txt with names.
func (f *Files) WriteLoadOrder(names []plugin.Name) error {
	var buf bytes.Buffer
	for _, n := range names {
		buf.WriteString(n.String())
		buf.WriteString("\r\n")
	}
	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", f.dir, err)
	}
	path := filepath.Join(f.dir, LoadOrderFile)
	if err := afero.WriteFile(f.fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (f *Files) readLines(name string) ([]string, error) {
	path := filepath.Join(f.dir, name)
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

func dedupe(names []plugin.Name) []plugin.Name {
	seen := make(map[plugin.Key]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if k := n.Key(); !seen[k] {
			seen[k] = true
			out = append(out, n)
		}
	}
	return out
}
