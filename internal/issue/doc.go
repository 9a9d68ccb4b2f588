// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the command line: failures
// that carry the operation, the resource, suggestions, and a link into a
// catalog of Markdown guides rendered with glamour.
package issue
