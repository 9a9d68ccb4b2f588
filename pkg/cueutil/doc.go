// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Both the configuration file and CUE metadata documents go through the same
// flow: compile the schema, unify the user document with one of its
// definitions, validate, and decode into a Go struct. Errors carry the file
// name and the JSON-style path of the offending field.
//
//	//go:embed schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Document](schema, data, "#Document",
//	    cueutil.WithFilename("masterlist.cue"))
package cueutil
