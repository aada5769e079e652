package tui

import "github.com/charmbracelet/lipgloss"

var (
	headingStyle = lipgloss.NewStyle().Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5599FF"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00CCCC"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00CCCC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00CCCC")).
			Bold(true)

	sandboxMarkerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00FF00")).
				Bold(true)

	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusStopped = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	statusOther   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))

	// Config diff
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
)
