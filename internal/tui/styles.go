// Package tui provides the live terminal screen for a receiver session.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for
// styling. It displays the session countdown, the connection status, and the
// peer endpoint once a connection is established.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Colors based on a modern dark theme
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber

	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	countdownStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	connectedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	waitingStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			MarginTop(1)
)

// renderKeyValue renders a label-value pair.
func renderKeyValue(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Render(value),
	)
}

// renderCountdownBar renders the elapsed portion of the session as a bar.
func renderCountdownBar(progress float64, width int) string {
	if width < 10 {
		width = 10
	}

	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := countdownStyle.Render(repeatChar('█', filled)) +
		lipgloss.NewStyle().Foreground(colorBorder).Render(repeatChar('░', width-filled))

	return bar + valueStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))
}

func repeatChar(char rune, count int) string {
	if count <= 0 {
		return ""
	}
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
