// SPDX-License-Identifier: MPL-2.0

// Package espm reads the header record of Bethesda plugin files (.esm/.esp).
//
// Only the leading TES4 record is decoded: its master flag and the MAST
// subrecords naming the plugin's structural masters. A full parse also
// checksums the whole file so callers can tell two builds of a plugin apart.
package espm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"path/filepath"

	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/spf13/afero"
)

const (
	// HeaderSizeTES4 is the record header size used by Oblivion.
	HeaderSizeTES4 = 20
	// HeaderSizeDefault is the record header size used by later games.
	HeaderSizeDefault = 24

	// FlagMaster marks a plugin as a master in the TES4 record flags.
	FlagMaster uint32 = 0x00000001

	recordType     = "TES4"
	masterSubtype  = "MAST"
	extendedSize   = "XXXX"
	subheaderSize  = 6
	maxHeaderBytes = 16 << 20
)

var (
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("plugin parse failed")
	// ErrNotPlugin is returned when a file does not start with a TES4 record.
	ErrNotPlugin = errors.New("not a plugin file")
	// ErrTruncated is returned when the header record ends early.
	ErrTruncated = errors.New("truncated header record")
)

type (
	// ParseError reports a failure to parse one plugin file.
	ParseError struct {
		Path  string
		Cause error
	}

	// Parser reads plugin headers from a filesystem.
	Parser struct {
		fs         afero.Fs
		headerSize int
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse plugin %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Cause} }

// NewParser creates a parser for plugins whose record headers are headerSize
// bytes long. A nil fs means the OS filesystem.
func NewParser(fs afero.Fs, headerSize int) *Parser {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if headerSize != HeaderSizeTES4 {
		headerSize = HeaderSizeDefault
	}
	return &Parser{fs: fs, headerSize: headerSize}
}

// Parse reads the plugin at path. The record's Name is the file's base name
// with any ghost marker removed. With headersOnly set the file checksum is
// skipped.
func (p *Parser) Parse(path string, headersOnly bool) (*plugin.Record, error) {
	rec, err := p.parse(path, headersOnly)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	return rec, nil
}

func (p *Parser) parse(path string, headersOnly bool) (*plugin.Record, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	hdr := make([]byte, p.headerSize)
	if _, err := io.ReadFull(f, hdr); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	if string(hdr[:4]) != recordType {
		return nil, ErrNotPlugin
	}
	dataSize := binary.LittleEndian.Uint32(hdr[4:8])
	flags := binary.LittleEndian.Uint32(hdr[8:12])
	if dataSize > maxHeaderBytes {
		return nil, fmt.Errorf("header record claims %d bytes: %w", dataSize, ErrTruncated)
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, ErrTruncated
	}
	masters, err := readMasters(data)
	if err != nil {
		return nil, err
	}

	name := plugin.Name(plugin.TrimGhost(filepath.Base(path)))
	rec := &plugin.Record{
		Name:       name,
		Key:        name.Key(),
		Path:       path,
		Size:       info.Size(),
		IsMaster:   flags&FlagMaster != 0,
		Masters:    masters,
		HeaderOnly: headersOnly,
	}

	if !headersOnly {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		h := crc32.NewIEEE()
		if _, err := io.Copy(h, f); err != nil {
			return nil, err
		}
		rec.CRC = h.Sum32()
	}
	return rec, nil
}

// readMasters walks the subrecords of the TES4 record and collects MAST values.
func readMasters(data []byte) ([]plugin.Name, error) {
	var masters []plugin.Name
	var pendingSize uint32
	for off := 0; off < len(data); {
		if len(data)-off < subheaderSize {
			return nil, ErrTruncated
		}
		typ := string(data[off : off+4])
		size := uint32(binary.LittleEndian.Uint16(data[off+4 : off+6]))
		off += subheaderSize
		if pendingSize != 0 {
			size, pendingSize = pendingSize, 0
		}
		if uint32(len(data)-off) < size {
			return nil, ErrTruncated
		}
		body := data[off : off+int(size)]
		off += int(size)

		switch typ {
		case extendedSize:
			if len(body) < 4 {
				return nil, ErrTruncated
			}
			pendingSize = binary.LittleEndian.Uint32(body)
		case masterSubtype:
			name := string(bytes.TrimRight(body, "\x00"))
			if name != "" {
				masters = append(masters, plugin.Name(name))
			}
		}
	}
	return masters, nil
}
