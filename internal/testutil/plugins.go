// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/plugsort/plugsort/pkg/espm"

	"github.com/spf13/afero"
)

type (
	// PluginSpec describes a plugin file to generate.
	PluginSpec struct {
		// Name is the filename, including a ".ghost" marker if wanted.
		Name string
		// Master sets the master flag in the header.
		Master bool
		// Masters lists the MAST subrecords in order.
		Masters []string
		// Padding appends that many bytes after the header record, to vary
		// file sizes.
		Padding int
	}
)

// EncodePlugin builds the bytes of a plugin file whose TES4 record header is
// headerSize bytes long.
func EncodePlugin(spec PluginSpec, headerSize int) []byte {
	var body bytes.Buffer
	hedr := make([]byte, 12)
	binary.LittleEndian.PutUint32(hedr[0:4], 0x3F733333) // version 0.95
	writeSubrecord(&body, "HEDR", hedr)
	writeSubrecord(&body, "CNAM", []byte("plugsort\x00"))
	for _, m := range spec.Masters {
		writeSubrecord(&body, "MAST", append([]byte(m), 0))
		writeSubrecord(&body, "DATA", make([]byte, 8))
	}

	header := make([]byte, headerSize)
	copy(header[0:4], "TES4")
	binary.LittleEndian.PutUint32(header[4:8], uint32(body.Len()))
	if spec.Master {
		binary.LittleEndian.PutUint32(header[8:12], espm.FlagMaster)
	}

	out := make([]byte, 0, headerSize+body.Len()+spec.Padding)
	out = append(out, header...)
	out = append(out, body.Bytes()...)
	out = append(out, make([]byte, spec.Padding)...)
	return out
}

// WritePlugin writes the plugin described by spec into dir and returns its path.
func WritePlugin(t testing.TB, fs afero.Fs, dir string, spec PluginSpec, headerSize int) string {
	t.Helper()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, spec.Name)
	if err := afero.WriteFile(fs, path, EncodePlugin(spec, headerSize), 0o644); err != nil {
		t.Fatalf("failed to write plugin %s: %v", path, err)
	}
	return path
}

// WritePlugins writes every spec into dir.
func WritePlugins(t testing.TB, fs afero.Fs, dir string, specs []PluginSpec, headerSize int) {
	t.Helper()
	for _, spec := range specs {
		WritePlugin(t, fs, dir, spec, headerSize)
	}
}

// MustWriteFile writes a text file, creating parent directories.
func MustWriteFile(t testing.TB, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func writeSubrecord(buf *bytes.Buffer, typ string, data []byte) {
	buf.WriteString(typ)
	var size [2]byte
	binary.LittleEndian.PutUint16(size[:], uint16(len(data)))
	buf.Write(size[:])
	buf.Write(data)
}
