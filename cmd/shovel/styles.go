// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorVerbose   = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for the program name in the long description.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	// SubtitleStyle is for section labels.
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// ErrorStyle prefixes error reports.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	// WarningStyle prefixes warnings, such as a config file that failed to load.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// CmdStyle is for command lines in examples.
	CmdStyle = lipgloss.NewStyle().Foreground(ColorHighlight)

	// VerboseStyle is for guidance shown with --verbose.
	VerboseStyle = lipgloss.NewStyle().Foreground(ColorVerbose)
)
