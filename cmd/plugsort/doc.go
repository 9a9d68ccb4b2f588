// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the plugsort command line.
//
// The root command carries the global --verbose and --config flags. Its
// subcommands load a game (sort, plugins) or inspect the configuration
// (config). Every command runs against an App, which holds the filesystem,
// the configuration provider and the output streams, so tests can run the
// command tree in process.
package cmd
