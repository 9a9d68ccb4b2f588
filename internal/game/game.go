// SPDX-License-Identifier: MPL-2.0

package game

import (
	"errors"
	"io"
	"io/fs"
	"slices"
	"sync"

	"github.com/plugsort/plugsort/internal/loadorder"
	"github.com/plugsort/plugsort/internal/overlay"
	"github.com/plugsort/plugsort/pkg/espm"
	"github.com/plugsort/plugsort/pkg/message"
	"github.com/plugsort/plugsort/pkg/metadata"
	"github.com/plugsort/plugsort/pkg/plugin"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type (
	// Parser reads one plugin file.
	Parser interface {
		Parse(path string, headersOnly bool) (*plugin.Record, error)
	}

	// LoadOrder supplies the game's current load order and active plugins.
	LoadOrder interface {
		LoadOrder() ([]plugin.Name, error)
		ActivePlugins() ([]plugin.Name, error)
	}

	// Options configure a Game. Zero values select the defaults.
	Options struct {
		// Fs is the filesystem holding the game. Defaults to the OS filesystem.
		Fs afero.Fs
		// Parser reads plugin headers. Defaults to an espm.Parser for the
		// game's header size.
		Parser Parser
		// LoadOrder defaults to the loadorder.txt and plugins.txt files in the
		// local folder.
		LoadOrder LoadOrder
		// Lanes caps loader parallelism. Defaults to GOMAXPROCS.
		Lanes int
		// Logger defaults to a logger that discards output.
		Logger *log.Logger
	}

	// Game is the context one load-and-sort cycle runs against: settings,
	// loaded plugins, metadata, and the messages produced along the way.
	// All methods are safe for concurrent use.
	Game struct {
		settings  Settings
		fs        afero.Fs
		parser    Parser
		loadOrder LoadOrder
		lanes     int
		logger    *log.Logger

		mu          sync.RWMutex
		registry    *Registry
		fullyLoaded bool
		loadDiags   []message.Message
		masterlist  *metadata.Set
		userlist    *metadata.Set
		messages    []message.Message
		sortErrors  []message.Message
	}

	// Snapshot is a consistent read-only view of a game for one sort.
	Snapshot struct {
		Kind Kind
		// Records are in discovery order.
		Records []*plugin.Record
		// LoadOrder is the current load order; it may list plugins that are
		// not installed and omit ones that are.
		LoadOrder       []plugin.Name
		Masterlist      *metadata.Set
		Userlist        *metadata.Set
		FullyLoaded     bool
		LoadDiagnostics []message.Message
	}
)

// New creates a game context. Invalid settings are rejected with
// ErrInvalidInput before any filesystem access.
func New(settings Settings, opts Options) (*Game, error) {
	if ok, errs := settings.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Parser == nil {
		opts.Parser = espm.NewParser(opts.Fs, settings.Kind.HeaderSize())
	}
	if opts.LoadOrder == nil {
		opts.LoadOrder = loadorder.New(opts.Fs, settings.ResolvedLocalPath())
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Game{
		settings:  settings,
		fs:        opts.Fs,
		parser:    opts.Parser,
		loadOrder: opts.LoadOrder,
		lanes:     opts.Lanes,
		logger:    opts.Logger,
	}, nil
}

// Settings returns the game settings.
func (g *Game) Settings() Settings { return g.settings }

// Logger returns the game's logger.
func (g *Game) Logger() *log.Logger { return g.logger }

// Init checks that the game's data folder exists and, with createFolder set,
// creates the local folder.
func (g *Game) Init(createFolder bool) error {
	data := g.settings.DataPath()
	info, err := g.fs.Stat(data)
	if err != nil {
		return &PathUnavailableError{Path: data, Cause: err}
	}
	if !info.IsDir() {
		return &PathUnavailableError{Path: data, Cause: errors.New("not a directory")}
	}

	if !createFolder {
		return nil
	}
	local := g.settings.ResolvedLocalPath()
	if local == "" {
		return &InvalidGameError{Field: "local_path", Reason: "must be set to create the local folder"}
	}
	if err := g.fs.MkdirAll(local, 0o755); err != nil {
		return &ResourceCreationError{Path: local, Cause: err}
	}
	g.logger.Debug("local folder ready", "path", local)
	return nil
}

// LoadMetadata reads the masterlist and userlist documents. An empty path
// leaves that list empty. A missing document is ErrPathUnavailable.
func (g *Game) LoadMetadata(masterlistPath, userlistPath string) error {
	masterlist, err := g.loadDocument(masterlistPath)
	if err != nil {
		return err
	}
	userlist, err := g.loadDocument(userlistPath)
	if err != nil {
		return err
	}
	g.SetMetadata(masterlist, userlist)
	g.logger.Debug("metadata loaded", "masterlist", masterlist.Len(), "userlist", userlist.Len())
	return nil
}

func (g *Game) loadDocument(path string) (*metadata.Set, error) {
	if path == "" {
		return metadata.NewSet(), nil
	}
	set, err := overlay.Load(g.fs, path)
	if errors.Is(err, overlay.ErrDocumentNotFound) {
		return nil, &PathUnavailableError{Path: path, Cause: fs.ErrNotExist}
	}
	return set, err
}

// SetMetadata replaces the curated and user metadata. Nil sets are empty.
func (g *Game) SetMetadata(masterlist, userlist *metadata.Set) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.masterlist, g.userlist = masterlist, userlist
}

// Plugins returns the loaded records in discovery order.
func (g *Game) Plugins() []*plugin.Record {
	return g.currentRegistry().Records()
}

// Plugin returns the loaded record for name.
func (g *Game) Plugin(name plugin.Name) (*plugin.Record, bool) {
	return g.currentRegistry().Get(name.Key())
}

// ArePluginsFullyLoaded reports whether the last load parsed whole files
// rather than headers only.
func (g *Game) ArePluginsFullyLoaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fullyLoaded
}

// IsPluginActive reports whether the game loads the plugin. Loaded records
// answer directly; other plugins are looked up in the active plugin list.
func (g *Game) IsPluginActive(name plugin.Name) bool {
	if rec, ok := g.Plugin(name); ok {
		return rec.IsActive
	}
	active, err := g.loadOrder.ActivePlugins()
	if err != nil {
		g.logger.Warn("failed to read active plugins", "error", err)
		return false
	}
	key := name.Key()
	return slices.ContainsFunc(active, func(n plugin.Name) bool { return n.Key() == key })
}

// Messages returns a copy of the public message list.
func (g *Game) Messages() []message.Message {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.messages)
}

// AppendMessage adds a message to the public list.
func (g *Game) AppendMessage(m message.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, m)
}

// ReplaceMessages swaps the public list for msgs in one step.
func (g *Game) ReplaceMessages(msgs []message.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = slices.Clone(msgs)
}

// Errors returns the messages recorded by failed sort attempts.
func (g *Game) Errors() []message.Message {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.sortErrors)
}

// AppendError records a failed sort attempt.
func (g *Game) AppendError(m message.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sortErrors = append(g.sortErrors, m)
}

// LoadDiagnostics returns the diagnostics of the last LoadPlugins call.
func (g *Game) LoadDiagnostics() []message.Message {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.loadDiags)
}

// Snapshot captures the state a sort reads. The load order is read from the
// LoadOrder collaborator at this point.
func (g *Game) Snapshot() (Snapshot, error) {
	order, err := g.loadOrder.LoadOrder()
	if err != nil {
		return Snapshot{}, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{
		Kind:            g.settings.Kind,
		Records:         g.registry.Records(),
		LoadOrder:       order,
		Masterlist:      g.masterlist,
		Userlist:        g.userlist,
		FullyLoaded:     g.fullyLoaded,
		LoadDiagnostics: slices.Clone(g.loadDiags),
	}, nil
}

func (g *Game) currentRegistry() *Registry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry
}
