// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/plugsort/plugsort/internal/config"
	"github.com/plugsort/plugsort/internal/game"
	"github.com/plugsort/plugsort/internal/issue"
	"github.com/plugsort/plugsort/internal/loadorder"
	"github.com/plugsort/plugsort/pkg/metadata"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// guideStyle lets glamour pick a style, falling back to plain text when
// stdout is not a terminal.
const guideStyle = "auto"

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App and reach the filesystem and configuration through it.
	App struct {
		Config config.Provider
		Fs     afero.Fs
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Fs     afero.Fs
		Stdout io.Writer
		Stderr io.Writer
	}

	// globalFlags are the persistent flags of the root command.
	globalFlags struct {
		verbose    bool
		configPath string
	}

	// gameFlags override configuration values for one invocation.
	gameFlags struct {
		game        string
		gamePath    string
		localPath   string
		masterlist  string
		userlist    string
		policy      string
		lanes       int
		headersOnly bool
	}

	// session is a loaded game ready to be listed or sorted.
	session struct {
		cfg    config.Config
		game   *game.Game
		files  *loadorder.Files
		logger *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	return &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

func (f *gameFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.game, "game", "", "game kind: tes4, tes5, fo3, fonv or fo4")
	flags.StringVar(&f.gamePath, "game-path", "", "game install folder (plugins are read from its Data folder)")
	flags.StringVar(&f.localPath, "local-path", "", "folder holding loadorder.txt and plugins.txt")
	flags.StringVar(&f.masterlist, "masterlist", "", "curated metadata document (YAML, TOML or CUE)")
	flags.StringVar(&f.userlist, "userlist", "", "user metadata document (YAML, TOML or CUE)")
	flags.StringVar(&f.policy, "priority-policy", "", "how curated and user priorities combine: override or max")
	flags.IntVar(&f.lanes, "lanes", 0, "number of loader lanes (0 means one per CPU)")
	flags.BoolVar(&f.headersOnly, "headers-only", false, "parse plugin headers only and skip CRCs")
}

// apply copies the flags the user set over cfg.
func (f *gameFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("game") {
		cfg.Game = game.Kind(f.game)
	}
	if flags.Changed("game-path") {
		cfg.GamePath = f.gamePath
	}
	if flags.Changed("local-path") {
		cfg.LocalPath = f.localPath
	}
	if flags.Changed("masterlist") {
		cfg.Masterlist = f.masterlist
	}
	if flags.Changed("userlist") {
		cfg.Userlist = f.userlist
	}
	if flags.Changed("priority-policy") {
		cfg.PriorityPolicy = metadata.PriorityPolicy(f.policy)
	}
	if flags.Changed("lanes") {
		cfg.Lanes = config.LaneCount(f.lanes)
	}
	if flags.Changed("headers-only") {
		cfg.HeadersOnly = f.headersOnly
	}
}

func (a *App) loadConfig(ctx context.Context, g *globalFlags) (*config.Loaded, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: g.configPath, Fs: a.Fs})
}

func (a *App) newLogger(level config.LogLevel, verbose bool) *log.Logger {
	lvl := level.Level()
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName, Level: lvl})
}

// openGame resolves the configuration, then initializes the game, reads its
// metadata and loads its plugins.
func (a *App) openGame(cmd *cobra.Command, g *globalFlags, f *gameFlags) (*session, error) {
	ctx := cmd.Context()
	loaded, err := a.loadConfig(ctx, g)
	if err != nil {
		return nil, err
	}
	cfg := *loaded.Config
	f.apply(cmd, &cfg)
	if ok, errs := cfg.IsValid(); !ok {
		return nil, settingsError(errors.Join(errs...))
	}

	logger := a.newLogger(cfg.LogLevel, g.verbose)
	localRoot := ""
	if dir, err := config.ConfigDir(); err == nil {
		localRoot = filepath.Join(dir, config.GamesDir)
	}
	settings := cfg.Settings(localRoot)
	files := loadorder.New(a.Fs, settings.ResolvedLocalPath())

	gm, err := game.New(settings, game.Options{
		Fs:        a.Fs,
		LoadOrder: files,
		Lanes:     int(cfg.Lanes),
		Logger:    logger,
	})
	if err != nil {
		return nil, settingsError(err)
	}

	if err := gm.Init(true); err != nil {
		return nil, initError(err)
	}

	if err := gm.LoadMetadata(cfg.Masterlist, cfg.Userlist); err != nil {
		return nil, metadataError(err)
	}

	if err := gm.LoadPlugins(ctx, cfg.HeadersOnly); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load plugins").
			WithResource(settings.DataPath()).
			WithGuide(issue.GamePathNotFoundId).
			Wrap(err).
			BuildError()
	}

	return &session{cfg: cfg, game: gm, files: files, logger: logger}, nil
}

func settingsError(err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("resolve game settings").
		Wrap(err)
	if errors.Is(err, game.ErrInvalidInput) {
		ctx.WithGuide(issue.InvalidGameId).
			WithSuggestion("Set --game and --game-path, or game and game_path in the config file")
	} else {
		ctx.WithGuide(issue.ConfigLoadFailedId)
	}
	return ctx.BuildError()
}

func initError(err error) error {
	ctx := issue.NewErrorContext().WithOperation("open game").Wrap(err)
	var pathErr *game.PathUnavailableError
	var createErr *game.ResourceCreationError
	switch {
	case errors.As(err, &pathErr):
		ctx.WithResource(pathErr.Path).WithGuide(issue.GamePathNotFoundId)
	case errors.As(err, &createErr):
		ctx.WithResource(createErr.Path).WithGuide(issue.LocalFolderUnavailableId)
	case errors.Is(err, game.ErrInvalidInput):
		ctx.WithGuide(issue.LocalFolderUnavailableId).
			WithSuggestion("Set --local-path or local_path in the config file")
	}
	return ctx.BuildError()
}

func metadataError(err error) error {
	ctx := issue.NewErrorContext().WithOperation("load metadata").Wrap(err)
	var pathErr *game.PathUnavailableError
	if errors.As(err, &pathErr) {
		ctx.WithResource(pathErr.Path).WithGuide(issue.MetadataNotFoundId)
	} else {
		ctx.WithGuide(issue.MetadataParseErrorId)
	}
	return ctx.BuildError()
}

// explain writes what the one-line error printed by the command runner leaves
// out: the guide for the failure and its suggestions. The full cause chain
// is added in verbose mode.
func (a *App) explain(err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	if is := ae.Issue(); is != nil {
		if rendered, rerr := is.Render(guideStyle); rerr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	if details := strings.TrimPrefix(ae.Format(verbose), ae.Error()); strings.TrimSpace(details) != "" {
		fmt.Fprintln(a.stderr, strings.TrimLeft(details, "\n"))
	}
}
