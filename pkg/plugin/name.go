// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// ExtMaster is the file extension of master plugins.
	ExtMaster = ".esm"
	// ExtPlugin is the file extension of ordinary plugins.
	ExtPlugin = ".esp"
	// GhostSuffix marks a plugin file that the game should ignore. It is
	// stripped from the logical plugin name.
	GhostSuffix = ".ghost"
)

// ErrInvalidPluginName is the sentinel error wrapped by InvalidNameError.
var ErrInvalidPluginName = errors.New("invalid plugin name")

type (
	// Name is a plugin filename as displayed to users, with its original casing
	// and without any ghost marker.
	Name string

	// Key is the case-folded identity of a plugin. Two names that differ only
	// by case map to the same Key.
	Key string

	// InvalidNameError is returned when a Name is empty, contains a path
	// separator, or lacks a plugin extension.
	InvalidNameError struct {
		Value  Name
		Reason string
	}
)

// Key returns the case-folded identity for the name.
func (n Name) Key() Key {
	// Casers are stateful and must not be shared between goroutines.
	return Key(cases.Fold().String(string(n)))
}

// String returns the name as a string.
func (n Name) String() string { return string(n) }

// IsValid returns whether the Name could identify a plugin file.
func (n Name) IsValid() (bool, []error) {
	s := string(n)
	switch {
	case strings.TrimSpace(s) == "":
		return false, []error{&InvalidNameError{Value: n, Reason: "must be non-empty"}}
	case strings.ContainsAny(s, `/\`):
		return false, []error{&InvalidNameError{Value: n, Reason: "must not contain a path separator"}}
	case !hasPluginExt(s):
		return false, []error{&InvalidNameError{Value: n, Reason: "must end in .esm or .esp"}}
	}
	return true, nil
}

// String returns the key as a string.
func (k Key) String() string { return string(k) }

// Error implements the error interface for InvalidNameError.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid plugin name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPluginName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidPluginName }

// IsPluginFilename reports whether a directory entry name looks like a plugin
// file, optionally carrying the ghost marker.
func IsPluginFilename(filename string) bool {
	return hasPluginExt(TrimGhost(filename))
}

// TrimGhost strips a trailing ghost marker (case-insensitive) from a filename.
func TrimGhost(filename string) string {
	if len(filename) > len(GhostSuffix) && strings.EqualFold(filename[len(filename)-len(GhostSuffix):], GhostSuffix) {
		return filename[:len(filename)-len(GhostSuffix)]
	}
	return filename
}

// IsGhosted reports whether the filename carries the ghost marker.
func IsGhosted(filename string) bool {
	return TrimGhost(filename) != filename
}

func hasPluginExt(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	return (ext == ExtMaster || ext == ExtPlugin) && len(filename) > len(ext)
}
