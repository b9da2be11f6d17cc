// Package ui holds every terminal surface of the client: the banner, the
// interactive pickers and the retry progress lines.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nautilus-cli/nautilus/internal/version"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00CED1"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// Banner renders the startup header.
func Banner() string {
	return fmt.Sprintf("%s %s\n%s\n",
		titleStyle.Render("Nautilus"),
		subtleStyle.Render("v"+version.Version),
		subtleStyle.Render("search, stream, resume"),
	)
}

// Info renders a neutral informational line, used for absent-content
// outcomes like an empty result list.
func Info(msg string) string {
	return infoStyle.Render(msg)
}

// Warn renders a warning line.
func Warn(msg string) string {
	return warnStyle.Render(msg)
}

// Subtle renders a dimmed line for hints.
func Subtle(msg string) string {
	return subtleStyle.Render(msg)
}
