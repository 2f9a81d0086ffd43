// Package ui provides terminal output styling and the interactive source
// picker for the bdctl command suite.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for command output
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - titles, selection
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, current source
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Shared styles for command output
var (
	// TitleStyle is for section titles (e.g., "NDI SOURCES")
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// LabelStyle is for field labels (e.g., "Mode:")
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(14)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// CurrentStyle marks the source the decoder is tuned to
	CurrentStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// MutedStyle is for secondary details (addresses, indices)
	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SuccessStyle is for confirmation lines
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// ErrorStyle is for error lines
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// Status markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	CurrentMarker = "-->"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// RenderError formats an error line with the failure marker
func RenderError(message string) string {
	return ErrorStyle.Render(FailureMarker+" "+message)
}

// RenderSuccess formats a confirmation line with the success marker
func RenderSuccess(message string) string {
	return SuccessStyle.Render(SuccessMarker+" "+message)
}
