// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/plugsort/plugsort/internal/issue"
	"github.com/plugsort/plugsort/pkg/cueutil"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "plugsort"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. PLUGSORT_GAME_PATH.
	EnvPrefix = "PLUGSORT"
	// GamesDir is the folder under the config directory that holds per-game
	// local folders when no local path is configured.
	GamesDir = "games"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the plugsort configuration directory under the user's
// configuration root ($XDG_CONFIG_HOME, ~/Library/Application Support, or
// %AppData%).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate the user config directory: %w", err)
	}
	return filepath.Join(root, AppName), nil
}

// loadWithOptions reads the configuration. Precedence, lowest first: built-in
// defaults, the config file, PLUGSORT_* environment variables. It also
// returns the path of the file that was read, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	v := viper.New()
	v.SetFs(fsys)

	defaults := DefaultConfig()
	v.SetDefault("game", defaults.Game)
	v.SetDefault("game_path", defaults.GamePath)
	v.SetDefault("local_path", defaults.LocalPath)
	v.SetDefault("masterlist", defaults.Masterlist)
	v.SetDefault("userlist", defaults.Userlist)
	v.SetDefault("priority_policy", defaults.PriorityPolicy)
	v.SetDefault("lanes", defaults.Lanes)
	v.SetDefault("headers_only", defaults.HeadersOnly)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigFile(fsys, opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(fsys, v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithGuide(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment values bypass the CUE schema and are validated here.
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check PLUGSORT_* environment variables for typos").
			WithGuide(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, path, nil
}

// resolveConfigFile picks the file to read: the explicit path if given (it
// must exist), else config.cue in the config directory, else config.cue in
// the working directory. An empty result means defaults only.
func resolveConfigFile(fsys afero.Fs, opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(fsys, opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'plugsort config show' to see the default configuration").
				WithGuide(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}

	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(cfgDir, name), name} {
		if fileExists(fsys, candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// v. The file decodes to a map so that unset fields keep their defaults.
func loadCUEIntoViper(fsys afero.Fs, v *viper.Viper, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithConcrete(false), cueutil.WithFilename(path))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a config file holding the defaults into dir
// (the config directory when empty) unless one exists. It returns the path.
func CreateDefaultConfig(fsys afero.Fs, dir string) (string, error) {
	if dir == "" {
		cfgDir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = cfgDir
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(fsys, cfgPath) {
		return cfgPath, nil
	}
	if err := afero.WriteFile(fsys, cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE renders a configuration as a CUE document accepted by #Config.
// Empty paths are left out.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// plugsort configuration\n\n")
	fmt.Fprintf(&sb, "game: %q\n", cfg.Game)
	for _, f := range []struct{ key, value string }{
		{"game_path", cfg.GamePath},
		{"local_path", cfg.LocalPath},
		{"masterlist", cfg.Masterlist},
		{"userlist", cfg.Userlist},
	} {
		if f.value != "" {
			fmt.Fprintf(&sb, "%s: %q\n", f.key, f.value)
		}
	}
	if cfg.PriorityPolicy != "" {
		fmt.Fprintf(&sb, "priority_policy: %q\n", cfg.PriorityPolicy)
	}
	fmt.Fprintf(&sb, "lanes: %d\n", cfg.Lanes)
	fmt.Fprintf(&sb, "headers_only: %v\n", cfg.HeadersOnly)
	if cfg.LogLevel != "" {
		fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)
	}

	return sb.String()
}
