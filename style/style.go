// Package style provides small lipgloss helpers for rendering terminal output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/plugtest/plugtest/color"
)

// New returns an empty lipgloss.Style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored initializes a new style with the specified foreground and background colors.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a rendering function that applies the foreground color.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

// Truncate returns a rendering function that constrains output to a maximum width.
func Truncate(max int) func(string) string {
	return func(s string) string { return New().MaxWidth(max).Render(s) }
}

var (
	Faint     = func(s string) string { return New().Faint(true).Render(s) }
	Bold      = func(s string) string { return New().Bold(true).Render(s) }
	Italic    = func(s string) string { return New().Italic(true).Render(s) }
	Underline = func(s string) string { return New().Underline(true).Render(s) }
)

// Title renders a padded heading banner.
var Title = func(s string) string {
	return Colored(color.Dark, color.New("62")).Padding(0, 1).Render(s)
}

// Pill renders a padded status tag with the given background.
func Pill(bg lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(color.Dark, bg).Padding(0, 1).Render(s) }
}
