package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/plugtest/plugtest/report"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/tester"
	"github.com/plugtest/plugtest/util"
)

func (b *bubble) View() string {
	var s strings.Builder

	s.WriteString(style.Title(b.title))
	s.WriteString("\n\n")

	idWidth := 0
	for _, r := range b.rows {
		idWidth = max(idWidth, len(r.ID))
	}

	for _, r := range b.rows {
		s.WriteString(b.renderRow(r, idWidth))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(b.renderFooter())
	s.WriteString("\n")

	if !b.finished && !b.cancelled {
		s.WriteString(b.help.View(b.keymap))
		s.WriteString("\n")
	}

	return s.String()
}

func (b *bubble) renderRow(r tester.Result, idWidth int) string {
	glyph := report.Icon(r.Status)
	if r.Status == tester.Running {
		glyph = b.spinner.View()
	}

	label := r.Status.String()
	if r.Skipped {
		label = "skipped"
	}

	row := fmt.Sprintf("%s %s %-*s", glyph, style.Pill(report.Color(r.Status))(fmt.Sprintf("%-8s", label)), idWidth, r.ID)

	var detail string
	switch {
	case r.Status == tester.Fail:
		detail = r.Error
	case r.Status.Terminal():
		detail = util.Quantify(r.StreamsCount, "stream", "streams") + "  " + style.Faint(r.Duration.Round(time.Millisecond).String())
	case r.Status == tester.Running && b.showLogs && len(r.Logs) > 0:
		detail = style.Faint(r.Logs[len(r.Logs)-1])
	}

	if detail == "" {
		return row
	}

	return row + "  " + style.Truncate(max(b.width-idWidth-16, 10))(detail)
}

func (b *bubble) renderFooter() string {
	var running int
	for _, r := range b.rows {
		if r.Status == tester.Running {
			running++
		}
	}

	s := report.Summarize(b.rows)
	line := fmt.Sprintf("%d/%d done, %d ok, %d empty, %d failed",
		s.OK+s.Empty+s.Fail, s.Total-s.Skipped, s.OK, s.Empty, s.Fail)

	if running > 0 {
		line += fmt.Sprintf(", %d running", running)
	}

	line += "  " + style.Faint(time.Since(b.started).Round(time.Second).String())

	if b.cancelled && !b.finished {
		line += "  " + style.Faint("stopping after the running scrapers finish")
	}

	return line
}
