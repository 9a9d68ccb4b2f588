// SPDX-License-Identifier: MPL-2.0

package espm_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"slices"
	"testing"

	"github.com/plugsort/plugsort/internal/testutil"
	"github.com/plugsort/plugsort/pkg/espm"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/spf13/afero"
)

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		spec        testutil.PluginSpec
		headerSize  int
		wantName    plugin.Name
		wantMaster  bool
		wantMasters []plugin.Name
	}{
		{
			name:       "master without masters",
			spec:       testutil.PluginSpec{Name: "Blank.esm", Master: true},
			headerSize: espm.HeaderSizeDefault,
			wantName:   "Blank.esm",
			wantMaster: true,
		},
		{
			name:        "plugin with masters",
			spec:        testutil.PluginSpec{Name: "Blank - Plugin Dependent.esp", Masters: []string{"Skyrim.esm", "Blank.esp"}},
			headerSize:  espm.HeaderSizeDefault,
			wantName:    "Blank - Plugin Dependent.esp",
			wantMasters: []plugin.Name{"Skyrim.esm", "Blank.esp"},
		},
		{
			name:        "oblivion header size",
			spec:        testutil.PluginSpec{Name: "Blank.esp", Masters: []string{"Oblivion.esm"}},
			headerSize:  espm.HeaderSizeTES4,
			wantName:    "Blank.esp",
			wantMasters: []plugin.Name{"Oblivion.esm"},
		},
		{
			name:       "ghosted file",
			spec:       testutil.PluginSpec{Name: "Blank.esm.ghost", Master: true},
			headerSize: espm.HeaderSizeDefault,
			wantName:   "Blank.esm",
			wantMaster: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			path := testutil.WritePlugin(t, fs, "/data", tt.spec, tt.headerSize)

			rec, err := espm.NewParser(fs, tt.headerSize).Parse(path, true)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if rec.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", rec.Name, tt.wantName)
			}
			if rec.Key != tt.wantName.Key() {
				t.Errorf("Key = %q, want %q", rec.Key, tt.wantName.Key())
			}
			if rec.Path != path {
				t.Errorf("Path = %q, want %q", rec.Path, path)
			}
			if rec.IsMaster != tt.wantMaster {
				t.Errorf("IsMaster = %v, want %v", rec.IsMaster, tt.wantMaster)
			}
			if !slices.Equal(rec.Masters, tt.wantMasters) {
				t.Errorf("Masters = %v, want %v", rec.Masters, tt.wantMasters)
			}
			if !rec.HeaderOnly || rec.CRC != 0 {
				t.Errorf("header-only parse: HeaderOnly = %v, CRC = %d", rec.HeaderOnly, rec.CRC)
			}
		})
	}
}

func TestParser_ParseFullComputesCRC(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	spec := testutil.PluginSpec{Name: "Blank.esp", Masters: []string{"Blank.esm"}, Padding: 64}
	path := testutil.WritePlugin(t, fs, "/data", spec, espm.HeaderSizeDefault)

	rec, err := espm.NewParser(fs, espm.HeaderSizeDefault).Parse(path, false)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	content := testutil.EncodePlugin(spec, espm.HeaderSizeDefault)
	if want := crc32.ChecksumIEEE(content); rec.CRC != want {
		t.Errorf("CRC = %08x, want %08x", rec.CRC, want)
	}
	if rec.HeaderOnly {
		t.Error("HeaderOnly = true for a full parse")
	}
	if rec.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", rec.Size, len(content))
	}
}

func TestParser_ExtendedSubrecordSize(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	sub := func(typ string, data []byte) {
		body.WriteString(typ)
		_ = binary.Write(&body, binary.LittleEndian, uint16(len(data)))
		body.Write(data)
	}
	ext := make([]byte, 4)
	binary.LittleEndian.PutUint32(ext, 16)
	sub("XXXX", ext)
	// The size field of the next subrecord is ignored in favour of XXXX.
	body.WriteString("ONAM")
	_ = binary.Write(&body, binary.LittleEndian, uint16(0))
	body.Write(make([]byte, 16))
	sub("MAST", []byte("Skyrim.esm\x00"))
	sub("DATA", make([]byte, 8))

	hdr := make([]byte, espm.HeaderSizeDefault)
	copy(hdr, "TES4")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(body.Len()))

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/Big.esp", append(hdr, body.Bytes()...), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := espm.NewParser(fs, espm.HeaderSizeDefault).Parse("/data/Big.esp", true)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !slices.Equal(rec.Masters, []plugin.Name{"Skyrim.esm"}) {
		t.Errorf("Masters = %v, want [Skyrim.esm]", rec.Masters)
	}
}

func TestParser_ParseErrors(t *testing.T) {
	t.Parallel()

	valid := testutil.EncodePlugin(testutil.PluginSpec{Name: "x.esp", Masters: []string{"Blank.esm"}}, espm.HeaderSizeDefault)

	tests := []struct {
		name    string
		content []byte
		wantErr error
	}{
		{"empty file", nil, espm.ErrTruncated},
		{"wrong magic", append([]byte("TES3"), valid[4:]...), espm.ErrNotPlugin},
		{"short header", valid[:10], espm.ErrTruncated},
		{"short data", valid[:len(valid)-3], espm.ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/data/Bad.esp", tt.content, 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := espm.NewParser(fs, espm.HeaderSizeDefault).Parse("/data/Bad.esp", true)
			if !errors.Is(err, espm.ErrParse) {
				t.Errorf("Parse() error = %v, want ErrParse", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			var pe *espm.ParseError
			if !errors.As(err, &pe) || pe.Path != "/data/Bad.esp" {
				t.Errorf("Parse() error = %v, want *ParseError for /data/Bad.esp", err)
			}
		})
	}
}

func TestParser_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := espm.NewParser(afero.NewMemMapFs(), espm.HeaderSizeDefault).Parse("/data/None.esp", true)
	if !errors.Is(err, espm.ErrParse) {
		t.Errorf("Parse() error = %v, want ErrParse", err)
	}
}
