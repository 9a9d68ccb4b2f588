// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/plugsort/plugsort/pkg/message"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// PluginStyle is for plugin names.
	PluginStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// indexStyle right-aligns load order positions.
	indexStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(5).
			Align(lipgloss.Right)
)

// severityStyle returns the style a message of the given severity is
// rendered with.
func severityStyle(s message.Severity) lipgloss.Style {
	switch s {
	case message.Error:
		return ErrorStyle
	case message.Warn:
		return WarningStyle
	default:
		return SubtitleStyle
	}
}
