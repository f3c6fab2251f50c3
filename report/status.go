package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/plugtest/plugtest/color"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/tester"
)

// Icon returns the glyph for a status.
func Icon(s tester.Status) string {
	switch s {
	case tester.Running:
		return icon.Get(icon.Running)
	case tester.OK:
		return icon.Get(icon.OK)
	case tester.OKEmpty:
		return icon.Get(icon.Empty)
	case tester.Fail:
		return icon.Get(icon.Fail)
	default:
		return icon.Get(icon.Idle)
	}
}

// Color returns the palette color for a status.
func Color(s tester.Status) lipgloss.Color {
	switch s {
	case tester.Running:
		return color.Running
	case tester.OK:
		return color.OK
	case tester.OKEmpty:
		return color.Empty
	case tester.Fail:
		return color.Fail
	default:
		return color.Idle
	}
}
