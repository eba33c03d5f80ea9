// Package wizard provides the interactive configuration setup for
// b2up, built on Bubble Tea with Lip Gloss styling.
package wizard

import "github.com/charmbracelet/lipgloss"

// Color palette for the wizard.
var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#28A745")
	dangerColor  = lipgloss.Color("#DC3545")
	mutedColor   = lipgloss.Color("#666666")
)

var (
	// titleStyle for the setup banner.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// promptStyle for the current question.
	promptStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// defaultStyle for the shown default value.
	defaultStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// errorStyle for inline validation errors.
	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	// stepCountStyle for the progress indicator.
	stepCountStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
