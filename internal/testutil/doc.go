// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures for tests: binary plugin headers written
// into an afero filesystem, and the eleven-plugin Skyrim data set used by the
// loader, sorter, and CLI tests.
//
// Helpers that take a testing.TB fail the test immediately on error.
package testutil
