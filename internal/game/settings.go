// SPDX-License-Identifier: MPL-2.0

package game

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/plugsort/plugsort/pkg/espm"
	"github.com/plugsort/plugsort/pkg/plugin"
)

const (
	// KindTES4 is The Elder Scrolls IV: Oblivion.
	KindTES4 Kind = "tes4"
	// KindTES5 is The Elder Scrolls V: Skyrim.
	KindTES5 Kind = "tes5"
	// KindFO3 is Fallout 3.
	KindFO3 Kind = "fo3"
	// KindFONV is Fallout: New Vegas.
	KindFONV Kind = "fonv"
	// KindFO4 is Fallout 4.
	KindFO4 Kind = "fo4"

	// DataDir is the plugin directory below the game path.
	DataDir = "Data"
)

var (
	// ErrInvalidInput is the sentinel error wrapped by InvalidGameError.
	ErrInvalidInput = errors.New("invalid game settings")
	// ErrPathUnavailable is the sentinel error wrapped by PathUnavailableError.
	ErrPathUnavailable = errors.New("path unavailable")
	// ErrResourceCreation is the sentinel error wrapped by ResourceCreationError.
	ErrResourceCreation = errors.New("resource creation failed")

	kinds = map[Kind]kindInfo{
		KindTES4: {master: "Oblivion.esm", folder: "Oblivion", headerSize: espm.HeaderSizeTES4},
		KindTES5: {master: "Skyrim.esm", folder: "Skyrim", headerSize: espm.HeaderSizeDefault},
		KindFO3:  {master: "Fallout3.esm", folder: "Fallout3", headerSize: espm.HeaderSizeDefault},
		KindFONV: {master: "FalloutNV.esm", folder: "FalloutNV", headerSize: espm.HeaderSizeDefault},
		KindFO4:  {master: "Fallout4.esm", folder: "Fallout4", headerSize: espm.HeaderSizeDefault},
	}
)

type (
	// Kind identifies a supported game.
	Kind string

	kindInfo struct {
		master     plugin.Name
		folder     string
		headerSize int
	}

	// Settings locate one game installation.
	Settings struct {
		// Kind selects the game.
		Kind Kind
		// GamePath is the install folder; plugins live in its Data folder.
		GamePath string
		// LocalPath is the per-game folder holding loadorder.txt and
		// plugins.txt. When empty it defaults to LocalRoot/<game folder>.
		LocalPath string
		// LocalRoot is the parent of per-game local folders.
		LocalRoot string
	}

	// InvalidGameError is returned when game settings cannot describe a game.
	InvalidGameError struct {
		Field  string
		Value  string
		Reason string
	}

	// PathUnavailableError is returned when a required path does not exist or
	// cannot be read.
	PathUnavailableError struct {
		Path  string
		Cause error
	}

	// ResourceCreationError is returned when a folder or file cannot be
	// created.
	ResourceCreationError struct {
		Path  string
		Cause error
	}
)

// Kinds returns the supported game kinds.
func Kinds() []Kind {
	return []Kind{KindTES4, KindTES5, KindFO3, KindFONV, KindFO4}
}

// IsValid returns whether the Kind is a supported game.
func (k Kind) IsValid() (bool, []error) {
	if _, ok := kinds[k]; ok {
		return true, nil
	}
	return false, []error{&InvalidGameError{Field: "kind", Value: string(k), Reason: "unknown game (valid: tes4, tes5, fo3, fonv, fo4)"}}
}

// PrimaryMaster returns the game's own master file.
func (k Kind) PrimaryMaster() plugin.Name { return kinds[k].master }

// FolderName returns the name of the game's local folder.
func (k Kind) FolderName() string { return kinds[k].folder }

// HeaderSize returns the record header size used by the game's plugins.
func (k Kind) HeaderSize() int { return kinds[k].headerSize }

// String returns the kind as a string.
func (k Kind) String() string { return string(k) }

// IsValid validates the settings.
func (s Settings) IsValid() (bool, []error) {
	var errs []error
	if ok, kindErrs := s.Kind.IsValid(); !ok {
		errs = append(errs, kindErrs...)
	}
	if strings.TrimSpace(s.GamePath) == "" {
		errs = append(errs, &InvalidGameError{Field: "game_path", Reason: "must be non-empty"})
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// DataPath returns the folder holding the game's plugins.
func (s Settings) DataPath() string {
	return filepath.Join(s.GamePath, DataDir)
}

// ResolvedLocalPath returns LocalPath, or LocalRoot joined with the game
// folder name when LocalPath is empty.
func (s Settings) ResolvedLocalPath() string {
	if s.LocalPath != "" || s.LocalRoot == "" {
		return s.LocalPath
	}
	return filepath.Join(s.LocalRoot, s.Kind.FolderName())
}

// Error implements the error interface for InvalidGameError.
func (e *InvalidGameError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid game %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid game %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidInput for errors.Is() compatibility.
func (e *InvalidGameError) Unwrap() error { return ErrInvalidInput }

// Error implements the error interface for PathUnavailableError.
func (e *PathUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("path unavailable: %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("path unavailable: %s", e.Path)
}

// Unwrap returns ErrPathUnavailable and the cause.
func (e *PathUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPathUnavailable}
	}
	return []error{ErrPathUnavailable, e.Cause}
}

// Error implements the error interface for ResourceCreationError.
func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("failed to create %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrResourceCreation and the cause.
func (e *ResourceCreationError) Unwrap() []error { return []error{ErrResourceCreation, e.Cause} }
