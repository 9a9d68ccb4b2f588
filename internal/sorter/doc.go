// SPDX-License-Identifier: MPL-2.0

// Package sorter computes plugin load orders.
//
// A sort runs in four steps over a snapshot of a game:
//
//  1. BuildGraph adds the hard constraints: the game's primary master before
//     other masters, structural masters before their dependents, metadata
//     requirements and load-after hints, and one virtual barrier that keeps
//     every master ahead of every plugin.
//  2. A cycle among hard constraints fails the sort.
//  3. ResolvePriorities propagates priorities along requirements and
//     load-after hints, then priority edges are added between plugins that
//     differ in effective priority. A priority edge that would contradict an
//     existing ordering is skipped.
//  4. The graph is sorted topologically. Ties go to the plugin that comes
//     first in the current load order, so unchanged input always sorts the
//     same way.
//
// The game's message list is only replaced when the sort succeeds.
package sorter
