// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/plugsort/plugsort/pkg/espm"

	"github.com/spf13/afero"
)

// Skyrim fixture plugin names.
const (
	SkyrimESM                        = "Skyrim.esm"
	BlankESM                         = "Blank.esm"
	BlankDifferentESM                = "Blank - Different.esm"
	BlankMasterDependentESM          = "Blank - Master Dependent.esm"
	BlankDifferentMasterDependentESM = "Blank - Different Master Dependent.esm"
	BlankESP                         = "Blank.esp"
	BlankDifferentESP                = "Blank - Different.esp"
	BlankMasterDependentESP          = "Blank - Master Dependent.esp"
	BlankDifferentMasterDependentESP = "Blank - Different Master Dependent.esp"
	BlankPluginDependentESP          = "Blank - Plugin Dependent.esp"
	BlankDifferentPluginDependentESP = "Blank - Different Plugin Dependent.esp"
)

// SkyrimPlugins returns the eleven fixture plugins: the game master, four
// masters forming two master-dependent chains, and six plugins with the
// analogous master- and plugin-dependent relations. Padding gives each file a
// distinct size.
func SkyrimPlugins() []PluginSpec {
	return []PluginSpec{
		{Name: SkyrimESM, Master: true, Padding: 4096},
		{Name: BlankESM, Master: true, Padding: 100},
		{Name: BlankDifferentESM, Master: true, Padding: 200},
		{Name: BlankMasterDependentESM, Master: true, Masters: []string{BlankESM}, Padding: 300},
		{Name: BlankDifferentMasterDependentESM, Master: true, Masters: []string{BlankDifferentESM}, Padding: 400},
		{Name: BlankESP, Padding: 150},
		{Name: BlankDifferentESP, Padding: 250},
		{Name: BlankMasterDependentESP, Masters: []string{BlankESM}, Padding: 350},
		{Name: BlankDifferentMasterDependentESP, Masters: []string{BlankDifferentESM}, Padding: 450},
		{Name: BlankPluginDependentESP, Masters: []string{BlankESP}, Padding: 50},
		{Name: BlankDifferentPluginDependentESP, Masters: []string{BlankDifferentESP}, Padding: 60},
	}
}

// SkyrimLoadOrder is the fixture's current load order, which is also the
// expected result of sorting it without metadata.
func SkyrimLoadOrder() []string {
	return []string{
		SkyrimESM,
		BlankESM,
		BlankDifferentESM,
		BlankMasterDependentESM,
		BlankDifferentMasterDependentESM,
		BlankESP,
		BlankDifferentESP,
		BlankMasterDependentESP,
		BlankDifferentMasterDependentESP,
		BlankPluginDependentESP,
		BlankDifferentPluginDependentESP,
	}
}

// LoadOrderFile renders names as the contents of a loadorder.txt file.
func LoadOrderFile(names []string) string {
	return strings.Join(names, "\n") + "\n"
}

// WriteSkyrim writes the fixture plugins into gamePath/Data and the fixture
// load order into localPath/loadorder.txt. Every plugin is listed as active in
// localPath/plugins.txt.
func WriteSkyrim(t testing.TB, fs afero.Fs, gamePath, localPath string) {
	t.Helper()
	WritePlugins(t, fs, filepath.Join(gamePath, "Data"), SkyrimPlugins(), espm.HeaderSizeDefault)
	MustWriteFile(t, fs, filepath.Join(localPath, "loadorder.txt"), LoadOrderFile(SkyrimLoadOrder()))
	MustWriteFile(t, fs, filepath.Join(localPath, "plugins.txt"), LoadOrderFile(SkyrimLoadOrder()))
}
