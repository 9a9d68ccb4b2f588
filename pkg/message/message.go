// SPDX-License-Identifier: MPL-2.0

// Package message defines the diagnostic messages that loading and sorting
// attach to a game or to individual plugins.
//
// Messages are data, not log lines: callers decide how and when to render
// them.
package message

import (
	"errors"
	"fmt"
	"slices"

	"github.com/plugsort/plugsort/pkg/plugin"
)

const (
	// Say is an informational note.
	Say Severity = "say"
	// Warn flags something the user should look at.
	Warn Severity = "warn"
	// Error flags a problem that makes the load order unreliable.
	Error Severity = "error"
)

const (
	// CodePluginParseFailed is attached when a plugin file could not be parsed.
	CodePluginParseFailed Code = "plugin_parse_failed"
	// CodeDuplicatePlugin is attached when two files resolve to the same plugin.
	CodeDuplicatePlugin Code = "duplicate_plugin"
	// CodeMissingMaster is attached when a structural master is not installed.
	CodeMissingMaster Code = "missing_master"
	// CodeMissingRequirement is attached when a required plugin is not installed.
	CodeMissingRequirement Code = "missing_requirement"
	// CodeDanglingLoadAfter is attached when a load-after target is not installed.
	CodeDanglingLoadAfter Code = "dangling_load_after"
	// CodeCyclicDependency is recorded when a sort attempt finds a cycle.
	CodeCyclicDependency Code = "cyclic_dependency"
	// CodeMetadata marks messages that come from metadata documents.
	CodeMetadata Code = "metadata"
)

// ErrInvalidSeverity is the sentinel error wrapped by InvalidSeverityError.
var ErrInvalidSeverity = errors.New("invalid message severity")

type (
	// Severity is the importance of a message.
	Severity string

	// Code is a machine-readable message identifier.
	Code string

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}

	// Message is one diagnostic.
	Message struct {
		Severity Severity
		Code     Code
		Text     string
		// Plugin is the plugin the message is about. Empty for game-wide messages.
		Plugin plugin.Name
	}
)

// New creates a game-wide message.
func New(sev Severity, code Code, text string) Message {
	return Message{Severity: sev, Code: code, Text: text}
}

// Newf creates a message about a plugin with a formatted text.
func Newf(sev Severity, code Code, p plugin.Name, format string, args ...any) Message {
	return Message{Severity: sev, Code: code, Text: fmt.Sprintf(format, args...), Plugin: p}
}

// IsValid returns whether the Severity is one of the known values.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case Say, Warn, Error:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// Error implements the error interface for InvalidSeverityError.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid message severity %q (valid: say, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// String renders the message on one line.
func (m Message) String() string {
	if m.Plugin != "" {
		return fmt.Sprintf("[%s] %s: %s", m.Severity, m.Plugin, m.Text)
	}
	return fmt.Sprintf("[%s] %s", m.Severity, m.Text)
}

// Union appends the messages of b that are not already in a. The result keeps
// the order of a followed by the new messages of b.
func Union(a, b []Message) []Message {
	out := slices.Clone(a)
	for _, m := range b {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
