package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	siteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	summaryStyle = lipgloss.NewStyle().
			Bold(true)
)

// colorize enables styled text output. It is set from --no-color and
// whether stdout is a terminal.
var colorize bool

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func paint(style lipgloss.Style, s string) string {
	if !colorize {
		return s
	}
	return style.Render(s)
}
