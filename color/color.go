// Package color provides the terminal palette shared by reports and the live board.
package color

import "github.com/charmbracelet/lipgloss"

// New initializes a lipgloss.Color from a string value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// ANSI palette.
var (
	Red      = New("1")
	Green    = New("2")
	Yellow   = New("3")
	Blue     = New("4")
	Purple   = New("5")
	Cyan     = New("6")
	HiRed    = New("9")
	HiBlue   = New("12")
	HiPurple = New("13")
	HiCyan   = New("14")
	Gray     = New("#808080")
	Dark     = New("230")
)

// Status colors, one per test outcome.
var (
	Idle    = Gray
	Running = HiCyan
	OK      = Green
	Empty   = New("#ffb703")
	Fail    = Red
)
