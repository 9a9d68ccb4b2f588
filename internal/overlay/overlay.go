// SPDX-License-Identifier: MPL-2.0

// Package overlay reads metadata documents (the curated masterlist and the
// user's userlist) into metadata sets.
//
// A document lists plugin entries under a top-level "plugins" key:
//
//	plugins:
//	  - name: Blank.esp
//	    after: [Blank - Different.esp]
//	    req: [Blank.esm]
//	    priority: -10
//	    global_priority: true
//	    msg:
//	      - type: warn
//	        content: Clean with your editor of choice.
//
// The same structure is accepted as YAML, TOML, or CUE; the format is chosen
// by file extension. Unknown fields are rejected in every format.
package overlay

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/plugsort/plugsort/pkg/cueutil"
	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/metadata"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// FormatYAML selects YAML documents (.yaml, .yml).
	FormatYAML Format = "yaml"
	// FormatTOML selects TOML documents (.toml).
	FormatTOML Format = "toml"
	// FormatCUE selects CUE documents (.cue).
	FormatCUE Format = "cue"
)

var (
	//go:embed schema.cue
	schema []byte

	// ErrUnsupportedFormat is the sentinel error wrapped by UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported metadata format")
	// ErrInvalidDocument is the sentinel error wrapped by InvalidDocumentError.
	ErrInvalidDocument = errors.New("invalid metadata document")
	// ErrDocumentNotFound is returned by Load when the document does not exist.
	ErrDocumentNotFound = errors.New("metadata document not found")
)

type (
	// Format is a metadata document encoding.
	Format string

	// UnsupportedFormatError is returned for unknown file extensions.
	UnsupportedFormatError struct {
		Path string
	}

	// InvalidDocumentError is returned when a document cannot be decoded or
	// fails validation.
	InvalidDocumentError struct {
		Path  string
		Cause error
	}

	// Document is the decoded form of a metadata file.
	Document struct {
		Plugins []PluginEntry `json:"plugins,omitempty" yaml:"plugins" toml:"plugins"`
	}

	// PluginEntry is one plugin's metadata as written in a document.
	PluginEntry struct {
		Name           string         `json:"name" yaml:"name" toml:"name"`
		After          []string       `json:"after,omitempty" yaml:"after" toml:"after"`
		Req            []string       `json:"req,omitempty" yaml:"req" toml:"req"`
		Priority       int            `json:"priority,omitempty" yaml:"priority" toml:"priority"`
		GlobalPriority bool           `json:"global_priority,omitempty" yaml:"global_priority" toml:"global_priority"`
		Msg            []MessageEntry `json:"msg,omitempty" yaml:"msg" toml:"msg"`
	}

	// MessageEntry is a message attached to a plugin entry.
	MessageEntry struct {
		Type    string `json:"type" yaml:"type" toml:"type"`
		Content string `json:"content" yaml:"content" toml:"content"`
	}
)

// Error implements the error interface for UnsupportedFormatError.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported metadata format for %s (valid extensions: .yaml, .yml, .toml, .cue)", e.Path)
}

// Unwrap returns ErrUnsupportedFormat for errors.Is() compatibility.
func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// Error implements the error interface for InvalidDocumentError.
func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("invalid metadata document %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrInvalidDocument and the cause.
func (e *InvalidDocumentError) Unwrap() []error { return []error{ErrInvalidDocument, e.Cause} }

// FormatFromPath picks the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &UnsupportedFormatError{Path: path}
	}
}

// Load reads and decodes the document at path. A nil fsys means the OS
// filesystem.
func Load(fsys afero.Fs, path string) (*metadata.Set, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("failed to read metadata document %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// Parse decodes a document and converts it into a metadata set. filename is
// used in error messages only.
func Parse(data []byte, format Format, filename string) (*metadata.Set, error) {
	doc, err := decode(data, format, filename)
	if err != nil {
		return nil, &InvalidDocumentError{Path: filename, Cause: err}
	}
	set, err := doc.Set()
	if err != nil {
		return nil, &InvalidDocumentError{Path: filename, Cause: err}
	}
	return set, nil
}

// Set validates the document and converts it into a metadata set. Repeated
// entries for the same plugin are merged.
func (d *Document) Set() (*metadata.Set, error) {
	var errs []error
	set := metadata.NewSet()
	for i, p := range d.Plugins {
		entry, err := p.entry()
		if err != nil {
			errs = append(errs, fmt.Errorf("plugins[%d]: %w", i, err))
			continue
		}
		set.Add(entry)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}

func (p PluginEntry) entry() (metadata.Entry, error) {
	name := plugin.Name(p.Name)
	if ok, errs := name.IsValid(); !ok {
		return metadata.Entry{}, errs[0]
	}
	after, err := names(p.After)
	if err != nil {
		return metadata.Entry{}, fmt.Errorf("after: %w", err)
	}
	req, err := names(p.Req)
	if err != nil {
		return metadata.Entry{}, fmt.Errorf("req: %w", err)
	}

	entry := metadata.Entry{
		Name:           name,
		Requirements:   req,
		LoadAfter:      after,
		Priority:       p.Priority,
		GlobalPriority: p.GlobalPriority,
	}
	for j, m := range p.Msg {
		sev := message.Severity(m.Type)
		if ok, errs := sev.IsValid(); !ok {
			return metadata.Entry{}, fmt.Errorf("msg[%d]: %w", j, errs[0])
		}
		entry.Messages = append(entry.Messages, message.Newf(sev, message.CodeMetadata, name, "%s", m.Content))
	}
	return entry, nil
}

func names(raw []string) ([]plugin.Name, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]plugin.Name, 0, len(raw))
	for _, r := range raw {
		n := plugin.Name(r)
		if ok, errs := n.IsValid(); !ok {
			return nil, errs[0]
		}
		out = append(out, n)
	}
	return out, nil
}

func decode(data []byte, format Format, filename string) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	case FormatCUE:
		res, err := cueutil.ParseAndDecode[Document](schema, data, "#Document", cueutil.WithFilename(filename))
		if err != nil {
			return nil, err
		}
		doc = *res.Value
	default:
		return nil, &UnsupportedFormatError{Path: filename}
	}
	return &doc, nil
}
