// SPDX-License-Identifier: MPL-2.0

package plugin

import "slices"

const (
	// GroupMaster holds master plugins, which load before every plugin in
	// GroupPlugin unless a global priority says otherwise.
	GroupMaster Group = iota
	// GroupPlugin holds ordinary plugins.
	GroupPlugin
)

type (
	// Group partitions plugins into masters and non-masters.
	Group int

	// Record holds the facts parsed from one plugin file. Records are created
	// once by the loader and never modified after they enter the registry.
	Record struct {
		// Name is the logical plugin name (ghost marker stripped).
		Name Name
		// Key is the case-folded Name.
		Key Key
		// Path is the file that was parsed. It keeps the ghost marker if present.
		Path string
		// Size is the file size in bytes.
		Size int64
		// IsMaster is taken from the master flag of the plugin header.
		IsMaster bool
		// Masters lists the structural masters in header order.
		Masters []Name
		// IsActive reports whether the game will load the plugin.
		IsActive bool
		// HeaderOnly is set when only the header was parsed.
		HeaderOnly bool
		// CRC is the CRC-32 of the whole file. Zero for header-only records.
		CRC uint32
		// Discovery is the position of the file in the directory scan.
		Discovery int
	}
)

// String returns the group name.
func (g Group) String() string {
	switch g {
	case GroupMaster:
		return "master"
	case GroupPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// Group returns the ordering group the record belongs to.
func (r *Record) Group() Group {
	if r.IsMaster {
		return GroupMaster
	}
	return GroupPlugin
}

// MasterKeys returns the keys of the record's structural masters, without
// duplicates, in header order.
func (r *Record) MasterKeys() []Key {
	keys := make([]Key, 0, len(r.Masters))
	for _, m := range r.Masters {
		k := m.Key()
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Masters = slices.Clone(r.Masters)
	return &c
}
