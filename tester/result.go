package tester

import (
	"time"

	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/stream"
)

// Result is the test state of one scraper.
type Result struct {
	ID           string           `json:"id"`
	Name         string           `json:"name,omitempty"`
	Status       Status           `json:"status"`
	StreamsCount int              `json:"streamsCount"`
	Error        string           `json:"error,omitempty"`
	TriedURL     string           `json:"triedUrl,omitempty"`
	UsedURL      string           `json:"usedUrl,omitempty"`
	Logs         []string         `json:"logs"`
	DroppedLogs  int              `json:"droppedLogs,omitempty"`
	Duration     time.Duration    `json:"-"`
	DurationMs   int64            `json:"durationMs,omitempty"`
	Skipped      bool             `json:"skipped,omitempty"`
	Streams      []*stream.Stream `json:"streams,omitempty"`
}

// Outcome is what a finished test reports back to the board.
type Outcome struct {
	Output   *plugin.Output
	Err      error
	TriedURL string
	UsedURL  string
}
