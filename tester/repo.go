package tester

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/plugtest/plugtest/batch"
	"github.com/plugtest/plugtest/fetch"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/manifest"
	"github.com/plugtest/plugtest/plugin"
	"github.com/spf13/viper"
)

var (
	// ErrMissingFilename is the failure recorded for a scraper without a filename.
	ErrMissingFilename = errors.New("scraper has no filename")
	// ErrNotLoaded is returned when testing before a manifest was loaded.
	ErrNotLoaded = errors.New("no manifest loaded")
)

// Repo tests every scraper of a repository manifest.
type Repo struct {
	Fetcher  *fetch.Fetcher
	Executor plugin.Executor
	Board    *Board
	Params   plugin.Params
	// Limit caps how many scrapers are tested at once.
	Limit int
	// IncludeDisabled also tests scrapers whose manifest entry has enabled=false.
	IncludeDisabled bool

	mu     sync.Mutex
	loaded *manifest.Loaded
	only   map[string]struct{}
}

// NewRepo returns a repository flow with limits and logging taken from the configuration.
func NewRepo(fetcher *fetch.Fetcher, exec plugin.Executor, params plugin.Params) *Repo {
	return &Repo{
		Fetcher:         fetcher,
		Executor:        exec,
		Board:           NewBoard(LogsCap()),
		Params:          params,
		Limit:           batch.Limit(),
		IncludeDisabled: viper.GetBool(key.TesterIncludeDisabled),
	}
}

// Load fetches the manifest behind raw and resets the board to one idle entry per scraper.
func (r *Repo) Load(ctx context.Context, raw string) (*manifest.Loaded, error) {
	loaded, err := manifest.Load(ctx, r.Fetcher, raw)
	if err != nil {
		return nil, err
	}

	for _, warning := range loaded.Manifest.Warnings {
		log.Warn(warning)
	}

	r.mu.Lock()
	r.loaded = loaded
	r.only = nil
	r.mu.Unlock()

	r.Board.Reset(loaded.Manifest.Scrapers)
	log.Infof("loaded %d scrapers from %s", len(loaded.Manifest.Scrapers), loaded.UsedURL)

	return loaded, nil
}

// Loaded returns the current manifest, or nil.
func (r *Repo) Loaded() *manifest.Loaded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Only restricts TestAll to the given ids. No ids clears the restriction.
func (r *Repo) Only(ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded == nil {
		return ErrNotLoaded
	}

	if len(ids) == 0 {
		r.only = nil
		return nil
	}

	only := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.loaded.Manifest.Get(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownScraper, id)
		}
		only[id] = struct{}{}
	}

	r.only = only
	return nil
}

// Selected lists the scrapers TestAll would run and those it would skip as disabled.
func (r *Repo) Selected() (run, skipped []manifest.ScraperDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded == nil {
		return nil, nil
	}

	for _, d := range r.loaded.Manifest.Scrapers {
		if r.only != nil {
			if _, ok := r.only[d.ID]; !ok {
				continue
			}
		}

		if d.IsEnabled() || r.IncludeDisabled {
			run = append(run, d)
		} else {
			skipped = append(skipped, d)
		}
	}

	return run, skipped
}

// TestOne tests a single scraper regardless of whether it is enabled. Script failures are
// recorded in the returned result, not returned as errors.
func (r *Repo) TestOne(ctx context.Context, id string) (Result, error) {
	loaded := r.Loaded()
	if loaded == nil {
		return Result{}, ErrNotLoaded
	}

	d, ok := loaded.Manifest.Get(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownScraper, id)
	}

	if err := r.test(ctx, loaded, d); err != nil {
		return Result{}, err
	}

	result, _ := r.Board.Get(id)
	return result, nil
}

// TestAll tests the selected scrapers with bounded concurrency and returns the board in
// manifest order once every started test has finished.
func (r *Repo) TestAll(ctx context.Context) ([]Result, error) {
	loaded := r.Loaded()
	if loaded == nil {
		return nil, ErrNotLoaded
	}

	run, skipped := r.Selected()
	for _, d := range skipped {
		r.Board.Skip(d.ID)
	}

	log.Infof("testing %d scrapers, %d at a time", len(run), max(r.Limit, 1))

	batch.Run(ctx, run, r.Limit, func(ctx context.Context, d manifest.ScraperDescriptor) {
		if err := r.test(ctx, loaded, d); err != nil {
			log.Scraper(d.ID).Warn(err)
		}
	})

	return r.Board.Snapshot(), nil
}

// test runs one scraper end to end. It always leaves the scraper in a terminal state once
// Begin succeeded, even if something below panics.
func (r *Repo) test(ctx context.Context, loaded *manifest.Loaded, d manifest.ScraperDescriptor) error {
	onLog, err := r.Board.Begin(d.ID)
	if err != nil {
		return err
	}

	logger := log.Scraper(d.ID)
	mirror := func(line string) {
		onLog(line)
		logger.Debug(line)
	}

	finished := false
	finish := func(outcome Outcome) {
		finished = true
		r.Board.Finish(d.ID, outcome)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Errorf("panic while testing: %v", p)
			if !finished {
				r.Board.Finish(d.ID, Outcome{Err: fmt.Errorf("panic: %v", p)})
			}
		}
	}()

	if strings.TrimSpace(d.Filename) == "" {
		finish(Outcome{Err: ErrMissingFilename})
		return nil
	}

	resp, err := r.Fetcher.Text(ctx, loaded.ScriptCandidates(d))
	if err != nil {
		logger.Warnf("fetch failed: %v", err)
		finish(Outcome{Err: fmt.Errorf("fetch script: %w", err), TriedURL: fetch.TriedURL(err)})
		return nil
	}

	out, err := r.Executor.Execute(ctx, string(resp.Body), r.Params, mirror)
	if err != nil {
		logger.Debugf("execution failed: %v", err)
	}

	finish(Outcome{
		Output:   out,
		Err:      err,
		TriedURL: resp.UsedURL,
		UsedURL:  resp.UsedURL,
	})

	if result, ok := r.Board.Get(d.ID); ok {
		logger.Infof("finished %s with %d streams in %s", result.Status, result.StreamsCount, result.Duration)
	}
	return nil
}
