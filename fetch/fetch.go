// Package fetch downloads manifests and plugin scripts, walking an ordered list of
// candidate URLs until one answers.
//
// Resolution is a small state machine: try the next candidate; on success stop, on failure
// move on; once the list is exhausted report the last URL and the last cause. Candidates are
// attempted strictly one at a time.
package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/filesystem"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/log"
	"github.com/plugtest/plugtest/network"
	"github.com/spf13/viper"
)

const (
	// DefaultTimeout bounds a single attempt when the configuration does not.
	DefaultTimeout = 15 * time.Second

	// MaxBodySize is the largest manifest or script body accepted.
	MaxBodySize = 8 << 20
)

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AcceptFunc validates a downloaded body. A non-nil error counts as a failed attempt.
type AcceptFunc func(body []byte) error

// Response is a successful download.
type Response struct {
	Body     []byte
	UsedURL  string
	Attempts int
}

// Fetcher downloads resources with per-attempt timeouts and no-cache headers.
type Fetcher struct {
	client  Doer
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(client Doer) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// New returns a Fetcher using the shared network transport and the configured timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  network.New(0),
		timeout: time.Duration(viper.GetInt(key.FetchTimeout)) * time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}

	return f
}

// Timeout returns the per-attempt timeout.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

type state int

const (
	stateTryNext state = iota
	stateSuccess
	stateExhausted
)

// Fetch walks candidates in order and returns the first body that downloads and passes accept.
func (f *Fetcher) Fetch(ctx context.Context, candidates []string, accept AcceptFunc) (*Response, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	var (
		current = stateTryNext
		next    int
		lastURL string
		lastErr error
		body    []byte
	)

	for {
		switch current {
		case stateTryNext:
			if next >= len(candidates) {
				current = stateExhausted
				continue
			}

			if err := ctx.Err(); err != nil {
				lastErr = err
				current = stateExhausted
				continue
			}

			lastURL = candidates[next]
			next++

			b, err := f.attempt(ctx, lastURL)
			if err == nil && accept != nil {
				err = accept(b)
			}

			if err != nil {
				log.Debugf("fetch attempt %d/%d failed for %s: %v", next, len(candidates), lastURL, err)
				lastErr = err
				continue
			}

			body = b
			current = stateSuccess

		case stateSuccess:
			log.Debugf("fetched %s (%d bytes)", lastURL, len(body))
			return &Response{Body: body, UsedURL: lastURL, Attempts: next}, nil

		case stateExhausted:
			return nil, &ExhaustedError{LastURL: lastURL, Attempts: next, Err: lastErr}
		}
	}
}

// Text downloads the first reachable candidate as raw text.
func (f *Fetcher) Text(ctx context.Context, candidates []string) (*Response, error) {
	return f.Fetch(ctx, candidates, nil)
}

// JSON downloads the first candidate whose body decodes into T. A malformed body moves on
// to the next candidate and, once all are exhausted, is reported like any fetch failure.
func JSON[T any](ctx context.Context, f *Fetcher, candidates []string) (*T, *Response, error) {
	var decoded *T

	resp, err := f.Fetch(ctx, candidates, func(body []byte) error {
		v := new(T)
		if err := json.Unmarshal(body, v); err != nil {
			return errors.Wrap(err, "decode json")
		}
		decoded = v
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return decoded, resp, nil
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, error) {
	if path, ok := strings.CutPrefix(rawURL, "file://"); ok {
		body, err := filesystem.API().ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		if len(body) > MaxBodySize {
			return nil, &TooLargeError{URL: rawURL, Limit: MaxBodySize}
		}
		return body, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	// one extra byte tells a body of exactly MaxBodySize from a larger one
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	if len(body) > MaxBodySize {
		return nil, &TooLargeError{URL: rawURL, Limit: MaxBodySize}
	}

	return body, nil
}
