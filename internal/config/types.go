// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plugsort/plugsort/internal/game"
	"github.com/plugsort/plugsort/pkg/metadata"

	"github.com/charmbracelet/log"
)

const (
	// LogLevelDebug logs graph construction and priority edges.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs one line per load and sort.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only failures.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLaneCount is returned when a LaneCount is negative.
	ErrInvalidLaneCount = errors.New("invalid lane count")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of log lines written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// LaneCount is the number of loader lanes. Zero means one per CPU.
	LaneCount int

	// InvalidLaneCountError is returned when a LaneCount is negative.
	InvalidLaneCountError struct {
		Value LaneCount
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the plugsort configuration.
	Config struct {
		Game           game.Kind               `json:"game" mapstructure:"game"`
		GamePath       string                  `json:"game_path" mapstructure:"game_path"`
		LocalPath      string                  `json:"local_path" mapstructure:"local_path"`
		Masterlist     string                  `json:"masterlist" mapstructure:"masterlist"`
		Userlist       string                  `json:"userlist" mapstructure:"userlist"`
		PriorityPolicy metadata.PriorityPolicy `json:"priority_policy" mapstructure:"priority_policy"`
		Lanes          LaneCount               `json:"lanes" mapstructure:"lanes"`
		HeadersOnly    bool                    `json:"headers_only" mapstructure:"headers_only"`
		LogLevel       LogLevel                `json:"log_level" mapstructure:"log_level"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Game:           game.KindTES5,
		PriorityPolicy: metadata.PriorityOverride,
		LogLevel:       LogLevelWarn,
	}
}

// IsValid validates every field. The game path is not checked here since it
// may still come from a command-line flag.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.Game.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.PriorityPolicy.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Lanes.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Settings returns the game settings described by the configuration.
// localRoot is used when no local path is configured.
func (c Config) Settings(localRoot string) game.Settings {
	return game.Settings{
		Kind:      c.Game,
		GamePath:  c.GamePath,
		LocalPath: c.LocalPath,
		LocalRoot: localRoot,
	}
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns the sentinel and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether the LogLevel is one of the known values.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level maps the LogLevel to a logger level. Unknown values map to warn.
func (l LogLevel) Level() log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelInfo:
		return log.InfoLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

func (l LogLevel) String() string { return string(l) }

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the LaneCount is zero or positive.
func (n LaneCount) IsValid() (bool, []error) {
	if n < 0 {
		return false, []error{&InvalidLaneCountError{Value: n}}
	}
	return true, nil
}

func (e *InvalidLaneCountError) Error() string {
	return fmt.Sprintf("invalid lane count %d: must be zero or positive", e.Value)
}

func (e *InvalidLaneCountError) Unwrap() error { return ErrInvalidLaneCount }
