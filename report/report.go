// Package report summarizes a test run for the terminal, for JSON consumers and for history.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/plugtest/plugtest/plugin"
	"github.com/plugtest/plugtest/tester"
)

// Summary counts results by outcome.
type Summary struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Empty   int `json:"empty"`
	Fail    int `json:"fail"`
	Skipped int `json:"skipped"`
	Idle    int `json:"idle"`
}

// Summarize counts results by outcome. Skipped scrapers are not counted as idle.
func Summarize(results []tester.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Status == tester.OK:
			s.OK++
		case r.Status == tester.OKEmpty:
			s.Empty++
		case r.Status == tester.Fail:
			s.Fail++
		default:
			s.Idle++
		}
	}
	return s
}

// Report is the record of one test run.
type Report struct {
	RunID      uuid.UUID       `json:"runId" jsonschema:"description=Unique identifier of the run"`
	Kind       string          `json:"kind" jsonschema:"enum=script,enum=repo"`
	Source     string          `json:"source" jsonschema:"description=What the user asked to test"`
	Manifest   string          `json:"manifest,omitempty" jsonschema:"description=Name declared by the repository manifest"`
	UsedURL    string          `json:"usedUrl,omitempty" jsonschema:"description=URL the script or manifest was finally fetched from"`
	Params     plugin.Params   `json:"params"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Results    []tester.Result `json:"results"`
	Summary    Summary         `json:"summary"`
}

// Kinds of runs.
const (
	KindScript = "script"
	KindRepo   = "repo"
)

// New starts a report for a run of the given kind.
func New(kind, source string, params plugin.Params) *Report {
	return &Report{
		RunID:     uuid.New(),
		Kind:      kind,
		Source:    source,
		Params:    params,
		StartedAt: time.Now(),
	}
}

// Finish records the results and closes the run.
func (r *Report) Finish(results []tester.Result) {
	r.FinishedAt = time.Now()
	r.Results = results
	r.Summary = Summarize(results)
}

// Duration is how long the run took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether any scraper failed.
func (r *Report) Failed() bool {
	return r.Summary.Fail > 0
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
