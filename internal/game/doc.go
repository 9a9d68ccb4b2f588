// SPDX-License-Identifier: MPL-2.0

// Package game holds the context a sort runs against: the game settings, the
// plugins loaded from its data folder, the curated and user metadata, and the
// messages produced by loading and sorting.
//
// LoadPlugins parses plugin files concurrently. The registry it fills is
// frozen once every lane has finished, and sorts read it through Snapshot.
package game
