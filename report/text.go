package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wrap"
	"github.com/plugtest/plugtest/style"
	"github.com/plugtest/plugtest/tester"
	"github.com/plugtest/plugtest/util"
	"github.com/samber/lo"
)

// TextOptions control the terminal rendering.
type TextOptions struct {
	// Logs includes each scraper's captured log lines. Failed scrapers always show theirs.
	Logs bool
	// Streams lists stream URLs under successful scrapers.
	Streams bool
	// Width wraps long lines. Zero means the terminal width.
	Width int
}

const logIndent = 6

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer, opts TextOptions) error {
	width := opts.Width
	if width <= 0 {
		width = util.TerminalWidth(100)
	}

	var b strings.Builder

	title := lo.Ternary(r.Manifest != "", r.Manifest, r.Source)
	fmt.Fprintf(&b, "%s %s\n", style.Title(title), style.Faint(r.RunID.String()))
	if r.UsedURL != "" && r.UsedURL != r.Source {
		fmt.Fprintf(&b, "%s %s\n", style.Faint("fetched"), r.UsedURL)
	}
	fmt.Fprintf(&b, "%s %s\n\n", style.Faint("params"), r.Params.String())

	idWidth := 0
	for _, res := range r.Results {
		idWidth = max(idWidth, len(res.ID))
	}

	for _, res := range r.Results {
		writeResult(&b, res, idWidth, width, opts)
	}

	fmt.Fprintf(&b, "\n%s\n", summaryLine(r.Summary, r.Duration()))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResult(b *strings.Builder, res tester.Result, idWidth, width int, opts TextOptions) {
	status := res.Status.String()
	if res.Skipped {
		status = "skipped"
	}

	pill := style.Fg(Color(res.Status))(fmt.Sprintf("%-8s", status))
	fmt.Fprintf(b, "%s %s %-*s", Icon(res.Status), pill, idWidth, res.ID)

	switch {
	case res.Status == tester.Fail:
		fmt.Fprintf(b, "  %s", res.Error)
	case res.Status.Terminal():
		fmt.Fprintf(b, "  %s", util.Quantify(res.StreamsCount, "stream", "streams"))
	}

	if res.Duration > 0 {
		fmt.Fprintf(b, "  %s", style.Faint(res.Duration.Round(time.Millisecond).String()))
	}
	b.WriteString("\n")

	if res.Status == tester.Fail && res.TriedURL != "" {
		fmt.Fprintf(b, "%s\n", indent.String(style.Faint("tried: "+res.TriedURL), logIndent))
	}

	if opts.Streams {
		for _, s := range res.Streams {
			line := s.URL
			if q := s.InferQuality(); q != "" {
				line = q + " " + line
			}
			fmt.Fprintf(b, "%s\n", indent.String(line, logIndent))
		}
	}

	if (opts.Logs || res.Status == tester.Fail) && len(res.Logs) > 0 {
		if res.DroppedLogs > 0 {
			fmt.Fprintf(b, "%s\n", indent.String(style.Faint(fmt.Sprintf("... %d earlier lines dropped", res.DroppedLogs)), logIndent))
		}
		logs := wrap.String(strings.Join(res.Logs, "\n"), max(width-logIndent, 20))
		fmt.Fprintf(b, "%s\n", indent.String(logs, logIndent))
	}
}

func summaryLine(s Summary, took time.Duration) string {
	parts := []string{
		util.Quantify(s.Total, "scraper", "scrapers"),
		fmt.Sprintf("%d ok", s.OK),
		fmt.Sprintf("%d empty", s.Empty),
		fmt.Sprintf("%d failed", s.Fail),
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if s.Idle > 0 {
		parts = append(parts, fmt.Sprintf("%d not run", s.Idle))
	}

	line := strings.Join(parts, ", ")
	if took > 0 {
		line += " in " + took.Round(time.Millisecond).String()
	}
	return style.Bold(line)
}
