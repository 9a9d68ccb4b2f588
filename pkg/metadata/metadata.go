// SPDX-License-Identifier: MPL-2.0

// Package metadata holds the per-plugin ordering facts that come from the
// curated masterlist and the user-editable userlist: requirements, load-after
// hints, priorities, and attached messages.
//
// A Set is read-only input to a sort. Merge combines the curated and user
// entries for one plugin under a configurable PriorityPolicy.
package metadata

import (
	"errors"
	"fmt"
	"slices"

	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/plugin"
)

const (
	// PriorityOverride takes the user priority and global flag whenever the
	// user entry sets a non-default value, and the curated values otherwise.
	PriorityOverride PriorityPolicy = "override"
	// PriorityMax takes the larger of the two priorities. The result is
	// global if either entry is.
	PriorityMax PriorityPolicy = "max"
)

// ErrInvalidPriorityPolicy is the sentinel error wrapped by InvalidPriorityPolicyError.
var ErrInvalidPriorityPolicy = errors.New("invalid priority policy")

type (
	// PriorityPolicy selects how curated and user priorities combine.
	PriorityPolicy string

	// InvalidPriorityPolicyError is returned when a PriorityPolicy value is not recognized.
	InvalidPriorityPolicyError struct {
		Value PriorityPolicy
	}

	// Entry is the ordering metadata for one plugin.
	Entry struct {
		// Name is the plugin the entry applies to.
		Name plugin.Name
		// Requirements must be installed and load before the plugin.
		Requirements []plugin.Name
		// LoadAfter lists plugins that must load before the plugin if installed.
		LoadAfter []plugin.Name
		// Priority is a soft ordering preference; lower loads earlier.
		Priority int
		// GlobalPriority lets Priority reorder across the master/plugin boundary.
		GlobalPriority bool
		// Messages are shown alongside the plugin.
		Messages []message.Message
	}

	// Set is a name-keyed collection of entries in insertion order.
	Set struct {
		entries []Entry
		index   map[plugin.Key]int
	}
)

// IsValid returns whether the PriorityPolicy is one of the known values.
// The zero value is valid and means PriorityOverride.
func (p PriorityPolicy) IsValid() (bool, []error) {
	switch p {
	case "", PriorityOverride, PriorityMax:
		return true, nil
	default:
		return false, []error{&InvalidPriorityPolicyError{Value: p}}
	}
}

// Error implements the error interface for InvalidPriorityPolicyError.
func (e *InvalidPriorityPolicyError) Error() string {
	return fmt.Sprintf("invalid priority policy %q (valid: override, max)", e.Value)
}

// Unwrap returns ErrInvalidPriorityPolicy for errors.Is() compatibility.
func (e *InvalidPriorityPolicyError) Unwrap() error { return ErrInvalidPriorityPolicy }

// HasPriority reports whether the entry sets a non-default priority or the
// global flag.
func (e Entry) HasPriority() bool {
	return e.Priority != 0 || e.GlobalPriority
}

// IsEmpty reports whether the entry carries no ordering data or messages.
func (e Entry) IsEmpty() bool {
	return len(e.Requirements) == 0 && len(e.LoadAfter) == 0 && len(e.Messages) == 0 && !e.HasPriority()
}

// NewSet creates a set holding the given entries. Entries for the same plugin
// are merged as by Add.
func NewSet(entries ...Entry) *Set {
	s := &Set{index: make(map[plugin.Key]int, len(entries))}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts an entry. If the set already holds an entry for the same plugin,
// the two are merged: lists are unioned and a later non-default priority wins.
func (s *Set) Add(e Entry) {
	if s.index == nil {
		s.index = make(map[plugin.Key]int)
	}
	key := e.Name.Key()
	if i, ok := s.index[key]; ok {
		s.entries[i] = mergeSameSource(s.entries[i], e)
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, cloneEntry(e))
}

// Get returns the entry for a plugin key.
func (s *Set) Get(key plugin.Key) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(s.entries[i]), true
}

// Len returns the number of plugins with entries.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of all entries in insertion order.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Merge combines the curated and user entries for one plugin. Lists are
// unioned with curated items first; priorities follow the policy.
func Merge(curated, user Entry, policy PriorityPolicy) Entry {
	name := curated.Name
	if name == "" {
		name = user.Name
	}
	out := Entry{
		Name:         name,
		Requirements: unionNames(curated.Requirements, user.Requirements),
		LoadAfter:    unionNames(curated.LoadAfter, user.LoadAfter),
		Messages:     message.Union(curated.Messages, user.Messages),
	}

	switch policy {
	case PriorityMax:
		out.Priority = max(curated.Priority, user.Priority)
		out.GlobalPriority = curated.GlobalPriority || user.GlobalPriority
	default:
		if user.HasPriority() {
			out.Priority, out.GlobalPriority = user.Priority, user.GlobalPriority
		} else {
			out.Priority, out.GlobalPriority = curated.Priority, curated.GlobalPriority
		}
	}
	return out
}

func mergeSameSource(prev, next Entry) Entry {
	out := Entry{
		Name:           prev.Name,
		Requirements:   unionNames(prev.Requirements, next.Requirements),
		LoadAfter:      unionNames(prev.LoadAfter, next.LoadAfter),
		Messages:       message.Union(prev.Messages, next.Messages),
		Priority:       prev.Priority,
		GlobalPriority: prev.GlobalPriority,
	}
	if next.HasPriority() {
		out.Priority, out.GlobalPriority = next.Priority, next.GlobalPriority
	}
	return out
}

// unionNames unions two name lists by key, keeping the first spelling seen.
func unionNames(a, b []plugin.Name) []plugin.Name {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]plugin.Name, 0, len(a)+len(b))
	seen := make(map[plugin.Key]bool, len(a)+len(b))
	for _, list := range [][]plugin.Name{a, b} {
		for _, n := range list {
			if k := n.Key(); !seen[k] {
				seen[k] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func cloneEntry(e Entry) Entry {
	e.Requirements = slices.Clone(e.Requirements)
	e.LoadAfter = slices.Clone(e.LoadAfter)
	e.Messages = slices.Clone(e.Messages)
	return e
}
