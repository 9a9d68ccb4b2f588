// SPDX-License-Identifier: MPL-2.0

// Package plugin defines the immutable per-plugin facts produced by parsing a
// plugin file: its display name, case-folded identity key, master flag,
// structural masters, and active state.
//
// Every other package identifies plugins by Key. Names are only kept for
// display and for matching against files on disk.
package plugin
