// Package ui provides terminal rendering helpers for the scorepad CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// plain is true when the terminal can't do color; styles degrade to
// bare text.
var plain = termenv.EnvColorProfile() == termenv.Ascii

func render(style lipgloss.Style, s string) string {
	if plain {
		return s
	}
	return style.Render(s)
}

// RenderPass renders a success marker.
func RenderPass(s string) string {
	return render(passStyle, s)
}

// RenderWarn renders a warning marker.
func RenderWarn(s string) string {
	return render(warnStyle, s)
}

// RenderFail renders a failure marker.
func RenderFail(s string) string {
	return render(failStyle, s)
}

// RenderAccent renders informational highlights.
func RenderAccent(s string) string {
	return render(accentStyle, s)
}

// RenderDim renders de-emphasized detail text.
func RenderDim(s string) string {
	return render(dimStyle, s)
}
