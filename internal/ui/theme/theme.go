// Package theme holds the terminal styles of the CLI.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Vivid Purple
	Accent  = lipgloss.Color("#F97316") // Orange
	Success = lipgloss.Color("#22C55E") // Green
	Error   = lipgloss.Color("#F43F5E") // Rose
	TextDim = lipgloss.Color("#94A3B8") // Slate
)

var (
	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Warn = lipgloss.NewStyle().
		Foreground(Accent)
)

// Mark renders a check or a cross.
func Mark(ok bool) string {
	if ok {
		return Good.Render("✓")
	}
	return Bad.Render("✗")
}

// MasteryStyle colors a mastery label by its state name.
func MasteryStyle(state string) lipgloss.Style {
	switch state {
	case "mastered":
		return Good
	case "proficient":
		return Heading
	case "learning":
		return Warn
	}
	return Hint
}
