package tester

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/plugtest/plugtest/candidate"
	"github.com/plugtest/plugtest/fetch"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/plugin"
)

// Phase is the stage of a single-script test.
type Phase int

const (
	// PhaseCode: the script is being fetched or edited.
	PhaseCode Phase = iota
	// PhaseLogs: the script is running and logs are streaming.
	PhaseLogs
	// PhaseResults: the run settled.
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseCode:
		return "code"
	case PhaseLogs:
		return "logs"
	case PhaseResults:
		return "results"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrNoScript is returned when running before any code was fetched or set.
var ErrNoScript = errors.New("no script loaded")

// Single tests one script, fetched from a URL or a local path, or supplied directly.
type Single struct {
	Fetcher  *fetch.Fetcher
	Executor plugin.Executor
	LogsCap  int

	mu      sync.Mutex
	phase   Phase
	source  string
	usedURL string
	code    string
	result  Result
}

// NewSingle returns a single-script flow.
func NewSingle(fetcher *fetch.Fetcher, exec plugin.Executor) *Single {
	return &Single{
		Fetcher:  fetcher,
		Executor: exec,
		LogsCap:  LogsCap(),
	}
}

// Fetch loads the script behind source. Existing local files are read directly; anything
// else is treated as a URL and fetched with cache-busting fallbacks.
func (s *Single) Fetch(ctx context.Context, source string) (string, error) {
	var (
		body    []byte
		usedURL string
		err     error
	)

	if filesystem.IsFile(source) {
		body, err = filesystem.API().ReadFile(source)
		usedURL = source
	} else {
		var resp *fetch.Response
		resp, err = s.Fetcher.Text(ctx, candidate.ScriptCandidates(source))
		if resp != nil {
			body, usedURL = resp.Body, resp.UsedURL
		}
	}

	if err != nil {
		return "", fmt.Errorf("fetch script: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseCode
	s.source = source
	s.usedURL = usedURL
	s.code = string(body)
	s.result = Result{}

	log.Infof("fetched script from %s (%d bytes)", usedURL, len(body))
	return s.code, nil
}

// SetCode replaces the script, e.g. after local edits, and returns to the code phase.
func (s *Single) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseCode
	s.code = code
	s.result = Result{}
}

// Run executes the current script. Lines are forwarded to onLog as they arrive, if given.
// Script failures land in the returned Result; errors are reserved for misuse.
func (s *Single) Run(ctx context.Context, params plugin.Params, onLog plugin.LogFunc) (Result, error) {
	s.mu.Lock()
	if s.code == "" {
		s.mu.Unlock()
		return Result{}, ErrNoScript
	}
	if s.phase == PhaseLogs {
		s.mu.Unlock()
		return Result{}, ErrAlreadyRunning
	}

	code, id := s.code, s.source
	s.phase = PhaseLogs
	s.result = Result{ID: id, Status: Running}
	s.mu.Unlock()

	ring := NewLogRing(s.LogsCap)
	logger := log.Scraper(id)

	started := time.Now()
	out, err := s.Executor.Execute(ctx, code, params, func(line string) {
		ring.Append(line)
		logger.Debug(line)
		if onLog != nil {
			onLog(line)
		}
	})

	result := Result{
		ID:          id,
		Status:      Classify(out, err),
		UsedURL:     s.UsedURL(),
		Logs:        ring.Lines(),
		DroppedLogs: ring.Dropped(),
		Duration:    time.Since(started),
	}
	result.DurationMs = result.Duration.Milliseconds()

	if err != nil {
		result.Error = err.Error()
	}
	if out != nil {
		result.Streams = out.Streams
		result.StreamsCount = len(out.Streams)
	}

	s.mu.Lock()
	s.phase = PhaseResults
	s.result = result
	s.mu.Unlock()

	return result, nil
}

// Phase returns the current phase.
func (s *Single) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Code returns the current script.
func (s *Single) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// UsedURL is where the current script was fetched from.
func (s *Single) UsedURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usedURL
}

// Result returns the last run's result.
func (s *Single) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
